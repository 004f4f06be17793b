package remote

import (
	"context"
	"time"
)

// Listing defaults. PageSize is the provider maximum; the adapter clamps
// anything larger. Ordering and fields are passed through to the remote
// unchanged — the core never re-sorts or reinterprets them.
const (
	DefaultPageSize = 1000
	DefaultOrderBy  = "modifiedTime desc"
	DefaultFields   = "nextPageToken, files(id, name, modifiedTime, parents, size)"
)

// Resource is one remote file's metadata, normalized from the provider
// response. Opaque beyond the listed fields — the core never interprets it.
type Resource struct {
	ID         string
	Name       string
	ModifiedAt time.Time
	ParentIDs  []string
	Size       int64
}

// Page is one bounded response from a listing call. NextToken is an
// opaque continuation cursor, empty on the last page.
type Page struct {
	Items     []Resource
	NextToken string
}

// ListQuery describes one listing operation. Immutable, constructed per call.
// Empty Fields and OrderBy take the package defaults.
type ListQuery struct {
	Query    string
	Fields   string
	OrderBy  string
	FetchAll bool
}

// PageParams are the wire-level parameters for a single page fetch.
// Container scopes the listing to a parent folder; PageToken is empty
// for the first page.
type PageParams struct {
	Container string
	Query     string
	Fields    string
	OrderBy   string
	PageSize  int
	PageToken string
}

// PageSource fetches one page of resource metadata. One call is one
// network round trip; retry is the caller's responsibility.
type PageSource interface {
	FetchPage(ctx context.Context, params PageParams) (*Page, error)
}

// ContentSource fetches the complete raw content of one resource.
// One call is one network round trip; retry is the caller's responsibility.
type ContentSource interface {
	ReadContent(ctx context.Context, resourceID string) ([]byte, error)
}

// Authorizer reports whether credentials are bound and usable.
// The auth package provides the real implementation.
type Authorizer interface {
	IsAuthorized() bool
}
