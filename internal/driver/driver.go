// Package driver assembles the auth context, the listing/retrieval core,
// and the provider adapter into the single driver surface the CLI uses.
package driver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/gdrive-go/internal/auth"
	"github.com/tonimelisma/gdrive-go/internal/cache"
	"github.com/tonimelisma/gdrive-go/internal/config"
	"github.com/tonimelisma/gdrive-go/internal/gdrive"
	"github.com/tonimelisma/gdrive-go/internal/remote"
)

// Options tune a Driver beyond its configuration. Zero values select
// production defaults; tests override BaseURL and AuthEndpoint.
type Options struct {
	HTTPClient   *http.Client
	BaseURL      string
	AuthEndpoint oauth2.Endpoint
	MaxAttempts  int
	Observer     remote.AttemptObserver
	Cache        *cache.Store
}

// Driver is the file-storage driver: OAuth2 authorization, paginated
// listing, and whole-object download, each network call bounded by the
// shared retry policy. One instance serves one credential set and one
// container; operations on it are meant to be called sequentially.
type Driver struct {
	auth    *auth.Context
	lister  *remote.Lister
	fetcher *remote.Fetcher
	cache   *cache.Store
	logger  *slog.Logger
}

// New assembles a Driver from configuration. The logger is bound to a
// fresh instance id so events from concurrent driver instances can be
// told apart.
func New(cfg *config.Config, opts Options, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("driver_id", uuid.NewString()))

	authCtx := auth.New(auth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		Endpoint:     opts.AuthEndpoint,
	}, cfg.TokenPath, logger)

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = gdrive.DefaultBaseURL
	}

	client := gdrive.NewClient(baseURL, opts.HTTPClient, authCtx, logger)
	retrier := remote.NewRetrier(opts.MaxAttempts, opts.Observer, logger)

	return &Driver{
		auth:    authCtx,
		lister:  remote.NewLister(authCtx, client, retrier, cfg.ContainerID, logger),
		fetcher: remote.NewFetcher(authCtx, client, retrier, logger),
		cache:   opts.Cache,
		logger:  logger,
	}
}

// AuthURL returns the URL the user must visit to authorize the driver.
func (d *Driver) AuthURL(state string) string {
	return d.auth.AuthURL(state)
}

// Authorize exchanges an authorization code for credentials and binds them.
func (d *Driver) Authorize(ctx context.Context, code string) error {
	return d.auth.ExchangeCode(ctx, code)
}

// LoadToken binds a previously saved token. Returns auth.ErrNotLoggedIn
// when none exists.
func (d *Driver) LoadToken() error {
	return d.auth.Load()
}

// IsAuthorized reports whether credentials are bound.
func (d *Driver) IsAuthorized() bool {
	return d.auth.IsAuthorized()
}

// Logout discards the bound credentials.
func (d *Driver) Logout() error {
	return d.auth.Logout()
}

// List refreshes credentials if needed, then runs the listing. Full
// listings are additionally recorded in the snapshot cache when one is
// configured; a cache write failure does not fail the listing.
func (d *Driver) List(ctx context.Context, query remote.ListQuery) ([]remote.Resource, error) {
	if d.auth.IsAuthorized() {
		if err := d.auth.RefreshIfNeeded(ctx); err != nil {
			return nil, err
		}
	}

	resources, err := d.lister.List(ctx, query)
	if err != nil {
		return nil, err
	}

	if d.cache != nil && query.FetchAll {
		if cacheErr := d.cache.SaveSnapshot(ctx, resources); cacheErr != nil {
			d.logger.Warn("failed to cache listing snapshot",
				slog.String("error", cacheErr.Error()),
			)
		}
	}

	return resources, nil
}

// Fetch refreshes credentials if needed, then downloads the complete
// content of one resource.
func (d *Driver) Fetch(ctx context.Context, resourceID string) ([]byte, error) {
	if d.auth.IsAuthorized() {
		if err := d.auth.RefreshIfNeeded(ctx); err != nil {
			return nil, err
		}
	}

	return d.fetcher.Fetch(ctx, resourceID)
}

// CachedListing returns the last cached full listing and its age.
func (d *Driver) CachedListing(ctx context.Context) ([]remote.Resource, time.Time, error) {
	if d.cache == nil {
		return nil, time.Time{}, cache.ErrNoSnapshot
	}

	return d.cache.Snapshot(ctx)
}
