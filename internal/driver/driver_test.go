package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/gdrive-go/internal/cache"
	"github.com/tonimelisma/gdrive-go/internal/config"
	"github.com/tonimelisma/gdrive-go/internal/remote"
	"github.com/tonimelisma/gdrive-go/internal/tokenfile"
)

// testEnv bundles the fake provider endpoints behind one driver.
type testEnv struct {
	driver     *Driver
	tokenCalls *atomic.Int32
	apiCalls   *atomic.Int32
}

// newTestEnv builds a Driver against a fake OAuth endpoint and a fake
// files API. apiHandler serves /files requests.
func newTestEnv(t *testing.T, store *cache.Store, apiHandler http.HandlerFunc) *testEnv {
	t.Helper()

	var tokenCalls, apiCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, _ *http.Request) {
		tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","refresh_token":"rt","expires_in":3600}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		apiHandler(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8090/callback",
		ContainerID:  "folder-1",
		TokenPath:    filepath.Join(t.TempDir(), "token.json"),
	}

	d := New(cfg, Options{
		BaseURL: srv.URL,
		AuthEndpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
		Cache: store,
	}, nil)

	return &testEnv{driver: d, tokenCalls: &tokenCalls, apiCalls: &apiCalls}
}

// serveListing responds with one page containing n files.
func serveListing(n int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		files := make([]map[string]any, 0, n)
		for i := range n {
			files = append(files, map[string]any{
				"id":           fmt.Sprintf("file-%d", i),
				"name":         fmt.Sprintf("file %d.txt", i),
				"modifiedTime": "2026-08-30T10:00:00Z",
				"size":         "10",
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"files": files})
	}
}

func TestDriver_ListBeforeAuthorize(t *testing.T) {
	env := newTestEnv(t, nil, serveListing(1))

	_, err := env.driver.List(context.Background(), remote.ListQuery{FetchAll: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrNotAuthorized)

	// No network call of any kind.
	assert.Equal(t, int32(0), env.apiCalls.Load())
	assert.Equal(t, int32(0), env.tokenCalls.Load())
}

func TestDriver_FetchBeforeAuthorize(t *testing.T) {
	env := newTestEnv(t, nil, serveListing(0))

	_, err := env.driver.Fetch(context.Background(), "file123")
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrNotAuthorized)
	assert.Equal(t, int32(0), env.apiCalls.Load())
}

func TestDriver_AuthorizeThenList(t *testing.T) {
	env := newTestEnv(t, nil, serveListing(3))

	assert.False(t, env.driver.IsAuthorized())
	require.NoError(t, env.driver.Authorize(context.Background(), "auth-code"))
	assert.True(t, env.driver.IsAuthorized())

	got, err := env.driver.List(context.Background(), remote.ListQuery{FetchAll: true})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// One exchange; the fresh token needs no refresh.
	assert.Equal(t, int32(1), env.tokenCalls.Load())
}

func TestDriver_ListRefreshesStaleToken(t *testing.T) {
	env := newTestEnv(t, nil, serveListing(1))

	// Seed a stale token directly.
	require.NoError(t, tokenfile.Save(env.driver.auth.TokenPath(), &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-time.Hour),
	}, ""))
	require.NoError(t, env.driver.LoadToken())

	_, err := env.driver.List(context.Background(), remote.ListQuery{})
	require.NoError(t, err)

	// Exactly one refresh call before the listing.
	assert.Equal(t, int32(1), env.tokenCalls.Load())
}

func TestDriver_ListWritesCacheSnapshot(t *testing.T) {
	store, err := cache.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	env := newTestEnv(t, store, serveListing(2))
	require.NoError(t, env.driver.Authorize(context.Background(), "code"))

	_, err = env.driver.List(context.Background(), remote.ListQuery{FetchAll: true})
	require.NoError(t, err)

	cached, storedAt, err := env.driver.CachedListing(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 2)
	assert.False(t, storedAt.IsZero())
}

func TestDriver_SinglePageListSkipsCache(t *testing.T) {
	store, err := cache.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	env := newTestEnv(t, store, serveListing(2))
	require.NoError(t, env.driver.Authorize(context.Background(), "code"))

	_, err = env.driver.List(context.Background(), remote.ListQuery{FetchAll: false})
	require.NoError(t, err)

	_, _, err = env.driver.CachedListing(context.Background())
	assert.ErrorIs(t, err, cache.ErrNoSnapshot)
}

func TestDriver_CachedListingWithoutCache(t *testing.T) {
	env := newTestEnv(t, nil, serveListing(0))

	_, _, err := env.driver.CachedListing(context.Background())
	assert.ErrorIs(t, err, cache.ErrNoSnapshot)
}

func TestDriver_Fetch(t *testing.T) {
	want := []byte("file contents")

	env := newTestEnv(t, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/file123", r.URL.Path)
		require.Equal(t, "media", r.URL.Query().Get("alt"))
		_, _ = w.Write(want)
	})
	require.NoError(t, env.driver.Authorize(context.Background(), "code"))

	got, err := env.driver.Fetch(context.Background(), "file123")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDriver_Logout(t *testing.T) {
	env := newTestEnv(t, nil, serveListing(0))
	require.NoError(t, env.driver.Authorize(context.Background(), "code"))
	require.NoError(t, env.driver.Logout())

	assert.False(t, env.driver.IsAuthorized())

	_, err := env.driver.List(context.Background(), remote.ListQuery{})
	assert.ErrorIs(t, err, remote.ErrNotAuthorized)
}

func TestDriver_AuthURL(t *testing.T) {
	env := newTestEnv(t, nil, serveListing(0))

	u := env.driver.AuthURL("st8")
	assert.Contains(t, u, "state=st8")
	assert.Contains(t, u, "client_id=client-id")
}
