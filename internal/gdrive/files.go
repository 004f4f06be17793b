package gdrive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/tonimelisma/gdrive-go/internal/remote"
)

// maxPageSize is the files API ceiling for one listing page.
const maxPageSize = 1000

// fileResource mirrors the files API JSON exactly. Unexported — callers
// get remote.Resource via toResource() normalization.
type fileResource struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ModifiedTime string   `json:"modifiedTime"`
	Parents      []string `json:"parents"`
	Size         string   `json:"size"` // the API returns int64 as a JSON string
}

type fileListResponse struct {
	Files         []fileResource `json:"files"`
	NextPageToken string         `json:"nextPageToken"`
}

// toResource normalizes an API file resource into remote.Resource.
func (f *fileResource) toResource(logger *slog.Logger) remote.Resource {
	res := remote.Resource{
		ID:        f.ID,
		Name:      f.Name,
		ParentIDs: f.Parents,
	}

	if f.ModifiedTime != "" {
		t, err := time.Parse(time.RFC3339, f.ModifiedTime)
		if err != nil {
			logger.Warn("invalid modifiedTime, leaving zero",
				slog.String("file_id", f.ID),
				slog.String("raw", f.ModifiedTime),
			)
		} else {
			res.ModifiedAt = t
		}
	}

	// Folders and some native types carry no size field.
	if f.Size != "" {
		n, err := strconv.ParseInt(f.Size, 10, 64)
		if err != nil {
			logger.Warn("invalid size, leaving zero",
				slog.String("file_id", f.ID),
				slog.String("raw", f.Size),
			)
		} else {
			res.Size = n
		}
	}

	return res
}

// FetchPage fetches one listing page. Implements remote.PageSource.
// The container scope and caller query are merged into a single q
// expression; ordering and field selection pass through unchanged.
func (c *Client) FetchPage(ctx context.Context, params remote.PageParams) (*remote.Page, error) {
	size := params.PageSize
	if size <= 0 || size > maxPageSize {
		size = maxPageSize
	}

	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(size))

	if q := buildQuery(params.Container, params.Query); q != "" {
		query.Set("q", q)
	}

	if params.Fields != "" {
		query.Set("fields", params.Fields)
	}

	if params.OrderBy != "" {
		query.Set("orderBy", params.OrderBy)
	}

	if params.PageToken != "" {
		query.Set("pageToken", params.PageToken)
	}

	resp, err := c.get(ctx, "/files", query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var flr fileListResponse
	if err := json.NewDecoder(resp.Body).Decode(&flr); err != nil {
		return nil, fmt.Errorf("gdrive: decoding file list response: %w", err)
	}

	items := make([]remote.Resource, 0, len(flr.Files))
	for i := range flr.Files {
		items = append(items, flr.Files[i].toResource(c.logger))
	}

	return &remote.Page{Items: items, NextToken: flr.NextPageToken}, nil
}

// ReadContent fetches the complete raw content of one file.
// Implements remote.ContentSource.
func (c *Client) ReadContent(ctx context.Context, resourceID string) ([]byte, error) {
	query := url.Values{}
	query.Set("alt", "media")

	resp, err := c.get(ctx, "/files/"+url.PathEscape(resourceID), query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gdrive: reading content of %s: %w", resourceID, err)
	}

	return data, nil
}

// buildQuery merges the container scope with the caller's query string.
func buildQuery(container, callerQuery string) string {
	switch {
	case container == "":
		return callerQuery
	case callerQuery == "":
		return fmt.Sprintf("'%s' in parents", container)
	default:
		return fmt.Sprintf("'%s' in parents and (%s)", container, callerQuery)
	}
}
