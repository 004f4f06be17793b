package remote

import (
	"context"
	"log/slog"
)

// Fetcher retrieves a single resource's complete content through the
// retry policy. Whole-object fetch only — no range or streaming support.
type Fetcher struct {
	auth    Authorizer
	content ContentSource
	retrier *Retrier
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(auth Authorizer, content ContentSource, retrier *Retrier, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		auth:    auth,
		content: content,
		retrier: retrier,
		logger:  logger,
	}
}

// Fetch returns the raw bytes of the resource. On exhaustion no partial
// content is returned.
func (f *Fetcher) Fetch(ctx context.Context, resourceID string) ([]byte, error) {
	if !f.auth.IsAuthorized() {
		return nil, ErrNotAuthorized
	}

	f.logger.Info("fetching content", slog.String("resource_id", resourceID))

	var data []byte

	err := f.retrier.Do(ctx, "fetch content", func(ctx context.Context) error {
		var readErr error

		data, readErr = f.content.ReadContent(ctx, resourceID)

		return readErr
	})
	if err != nil {
		return nil, err
	}

	f.logger.Debug("fetch complete",
		slog.String("resource_id", resourceID),
		slog.Int("bytes", len(data)),
	)

	return data, nil
}
