package remote

import (
	"context"
	"log/slog"
)

// Lister drives a listing operation to completion, fetching pages
// strictly in token sequence. Each page fetch is wrapped individually in
// the retrier; exhaustion on any page aborts the whole listing with no
// partial aggregation.
type Lister struct {
	auth      Authorizer
	pages     PageSource
	retrier   *Retrier
	container string
	logger    *slog.Logger
}

// NewLister creates a Lister scoped to the given container. container
// may be empty for an unscoped listing.
func NewLister(auth Authorizer, pages PageSource, retrier *Retrier, container string, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}

	return &Lister{
		auth:      auth,
		pages:     pages,
		retrier:   retrier,
		container: container,
		logger:    logger,
	}
}

// List returns resources matching the query, in page-arrival order then
// in-page order. With FetchAll false, exactly one page is fetched
// regardless of the continuation token.
func (l *Lister) List(ctx context.Context, query ListQuery) ([]Resource, error) {
	if !l.auth.IsAuthorized() {
		return nil, ErrNotAuthorized
	}

	params := PageParams{
		Container: l.container,
		Query:     query.Query,
		Fields:    query.Fields,
		OrderBy:   query.OrderBy,
		PageSize:  DefaultPageSize,
	}

	if params.Fields == "" {
		params.Fields = DefaultFields
	}

	if params.OrderBy == "" {
		params.OrderBy = DefaultOrderBy
	}

	l.logger.Info("listing resources",
		slog.String("container", l.container),
		slog.String("query", query.Query),
		slog.Bool("fetch_all", query.FetchAll),
	)

	var resources []Resource

	pageNum := 1

	for {
		var page *Page

		err := l.retrier.Do(ctx, "list page", func(ctx context.Context) error {
			var fetchErr error

			page, fetchErr = l.pages.FetchPage(ctx, params)

			return fetchErr
		})
		if err != nil {
			return nil, err
		}

		resources = append(resources, page.Items...)

		l.logger.Debug("fetched page",
			slog.Int("page", pageNum),
			slog.Int("count", len(page.Items)),
			slog.Bool("has_next", page.NextToken != ""),
		)

		if !query.FetchAll || page.NextToken == "" {
			break
		}

		params.PageToken = page.NextToken
		pageNum++
	}

	l.logger.Info("listing complete",
		slog.Int("pages", pageNum),
		slog.Int("total_items", len(resources)),
	)

	return resources, nil
}
