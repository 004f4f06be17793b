// Package auth owns the OAuth2 credential state for one driver instance:
// code exchange, proactive token refresh, and the authorized/not-authorized
// answer the listing core gates on. The OAuth2 protocol itself is
// delegated to golang.org/x/oauth2.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/tonimelisma/gdrive-go/internal/tokenfile"
)

// DefaultRefreshSkew is the safety margin before actual token expiry at
// which a refresh is proactively triggered.
const DefaultRefreshSkew = 10 * time.Minute

// ErrNotLoggedIn is returned when an operation needs a token and none is bound.
var ErrNotLoggedIn = errors.New("auth: not logged in")

// Error wraps a failed exchange or refresh. Neither is retried — the
// caller must treat it as fatal for the current flow and may re-trigger
// the authorization flow.
type Error struct {
	Op  string // "exchange" or "refresh"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config carries the OAuth2 client registration. Endpoint may be
// overridden for tests; it defaults to Google's v2 endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	Endpoint     oauth2.Endpoint
	RefreshSkew  time.Duration // 0 = DefaultRefreshSkew
}

// defaultEndpoint is the Google OAuth2 endpoint pair.
var defaultEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

var defaultScopes = []string{"https://www.googleapis.com/auth/drive.readonly"}

// Context holds the current credential state. Operations on one driver
// instance are expected to be serialized by the caller; the mutex guards
// the token read-modify-write in refresh so a concurrent host cannot
// corrupt it.
type Context struct {
	mu        sync.Mutex
	cfg       *oauth2.Config
	tok       *oauth2.Token
	account   string
	tokenPath string
	skew      time.Duration
	logger    *slog.Logger

	// now is the clock used for the skew check. Tests override this.
	now func() time.Time
}

// New creates an unauthorized Context. Call Load or ExchangeCode to bind
// credentials.
func New(cfg Config, tokenPath string, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = defaultEndpoint
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}

	skew := cfg.RefreshSkew
	if skew <= 0 {
		skew = DefaultRefreshSkew
	}

	return &Context{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		tokenPath: tokenPath,
		skew:      skew,
		logger:    logger,
		now:       time.Now,
	}
}

// Load binds a previously saved token from disk. Returns ErrNotLoggedIn
// if no token file exists.
func (c *Context) Load() error {
	tok, account, err := tokenfile.Load(c.tokenPath)
	if err != nil {
		return err
	}

	if tok == nil {
		return ErrNotLoggedIn
	}

	c.mu.Lock()
	c.tok = tok
	c.account = account
	c.mu.Unlock()

	c.logger.Info("loaded saved token",
		slog.String("path", c.tokenPath),
		slog.Time("expiry", tok.Expiry),
		slog.Bool("expired", !tok.Expiry.IsZero() && tok.Expiry.Before(c.now())),
	)

	return nil
}

// AuthURL returns the authorization URL the user must visit to obtain a code.
func (c *Context) AuthURL(state string) string {
	return c.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode performs the one-shot code-for-token exchange and persists
// the result. A single attempt only — a blind retry of a consumed code
// would fail at the provider anyway.
func (c *Context) ExchangeCode(ctx context.Context, code string) error {
	c.logger.Info("exchanging authorization code for token")

	tok, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return &Error{Op: "exchange", Err: err}
	}

	if saveErr := tokenfile.Save(c.tokenPath, tok, c.account); saveErr != nil {
		return fmt.Errorf("auth: saving token: %w", saveErr)
	}

	c.mu.Lock()
	c.tok = tok
	c.mu.Unlock()

	c.logger.Info("authorization successful",
		slog.String("path", c.tokenPath),
		slog.Time("expiry", tok.Expiry),
	)

	return nil
}

// RefreshIfNeeded refreshes the access token when it expires within the
// skew window. Fresh tokens are a no-op with no network call. A failed
// refresh is fatal for the current operation — there is no silent
// continuation with a stale token.
func (c *Context) RefreshIfNeeded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tok == nil {
		return ErrNotLoggedIn
	}

	// Zero expiry means the provider issued a non-expiring token.
	if c.tok.Expiry.IsZero() || c.now().Add(c.skew).Before(c.tok.Expiry) {
		return nil
	}

	if c.tok.RefreshToken == "" {
		return &Error{Op: "refresh", Err: errors.New("no refresh token (re-login required)")}
	}

	c.logger.Info("refreshing token",
		slog.Time("expiry", c.tok.Expiry),
		slog.Duration("skew", c.skew),
	)

	// A refresh-token-only source forces a refresh grant even while the
	// access token is still technically valid inside the skew window.
	src := c.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: c.tok.RefreshToken})

	fresh, err := src.Token()
	if err != nil {
		return &Error{Op: "refresh", Err: err}
	}

	// Providers may omit the refresh token on renewal — keep the old one.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = c.tok.RefreshToken
	}

	if saveErr := tokenfile.Save(c.tokenPath, fresh, c.account); saveErr != nil {
		return fmt.Errorf("auth: persisting refreshed token: %w", saveErr)
	}

	c.tok = fresh

	c.logger.Info("token refreshed", slog.Time("new_expiry", fresh.Expiry))

	return nil
}

// IsAuthorized reports whether an OAuth2 client and a token are bound.
func (c *Context) IsAuthorized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cfg != nil && c.tok != nil && c.tok.AccessToken != ""
}

// Token returns the current bearer access token for the transport.
func (c *Context) Token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tok == nil || c.tok.AccessToken == "" {
		return "", ErrNotLoggedIn
	}

	return c.tok.AccessToken, nil
}

// TokenPath returns where the token is persisted.
func (c *Context) TokenPath() string {
	return c.tokenPath
}

// Account returns the account label loaded with the token, if any.
func (c *Context) Account() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.account
}

// Logout removes the saved token file and clears the in-memory token.
func (c *Context) Logout() error {
	if err := tokenfile.Remove(c.tokenPath); err != nil {
		return fmt.Errorf("auth: removing token file: %w", err)
	}

	c.mu.Lock()
	c.tok = nil
	c.account = ""
	c.mu.Unlock()

	c.logger.Info("logged out", slog.String("path", c.tokenPath))

	return nil
}
