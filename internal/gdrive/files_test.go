package gdrive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/gdrive-go/internal/remote"
)

const testListJSON = `{
	"nextPageToken": "token-2",
	"files": [
		{
			"id": "file-1",
			"name": "report.pdf",
			"modifiedTime": "2026-08-30T10:15:00Z",
			"parents": ["folder-1"],
			"size": "2048"
		},
		{
			"id": "folder-2",
			"name": "Archive",
			"modifiedTime": "2026-08-29T08:00:00Z",
			"parents": ["folder-1"]
		}
	]
}`

func TestFetchPage_ParamsEncoding(t *testing.T) {
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testListJSON))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	page, err := client.FetchPage(context.Background(), remote.PageParams{
		Container: "folder-1",
		Query:     "name contains 'report'",
		Fields:    remote.DefaultFields,
		OrderBy:   remote.DefaultOrderBy,
		PageSize:  1000,
		PageToken: "token-1",
	})
	require.NoError(t, err)
	require.NotNil(t, page)

	assert.Equal(t, []string{"1000"}, gotQuery["pageSize"])
	assert.Equal(t, []string{"'folder-1' in parents and (name contains 'report')"}, gotQuery["q"])
	assert.Equal(t, []string{remote.DefaultFields}, gotQuery["fields"])
	assert.Equal(t, []string{remote.DefaultOrderBy}, gotQuery["orderBy"])
	assert.Equal(t, []string{"token-1"}, gotQuery["pageToken"])
}

func TestFetchPage_Normalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testListJSON))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	page, err := client.FetchPage(context.Background(), remote.PageParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "token-2", page.NextToken)

	first := page.Items[0]
	assert.Equal(t, "file-1", first.ID)
	assert.Equal(t, "report.pdf", first.Name)
	assert.Equal(t, int64(2048), first.Size)
	assert.Equal(t, []string{"folder-1"}, first.ParentIDs)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC), first.ModifiedAt)

	// No size field on the folder resource: stays zero.
	assert.Zero(t, page.Items[1].Size)
}

func TestFetchPage_LastPageHasNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"files":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	page, err := client.FetchPage(context.Background(), remote.PageParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextToken)
}

func TestFetchPage_PageSizeClamped(t *testing.T) {
	var gotSize string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSize = r.URL.Query().Get("pageSize")
		_, _ = w.Write([]byte(`{"files":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.FetchPage(context.Background(), remote.PageParams{PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, "1000", gotSize)
}

func TestFetchPage_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.FetchPage(context.Background(), remote.PageParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding file list response")
}

func TestFetchPage_InvalidSizeAndTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"files":[{"id":"x","name":"y","modifiedTime":"garbage","size":"huge"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	page, err := client.FetchPage(context.Background(), remote.PageParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, page.Items[0].ModifiedAt.IsZero())
	assert.Zero(t, page.Items[0].Size)
}

func TestReadContent_Success(t *testing.T) {
	want := []byte{0x50, 0x4B, 0x03, 0x04}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/file123", r.URL.Path)
		assert.Equal(t, "media", r.URL.Query().Get("alt"))
		_, _ = w.Write(want)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	got, err := client.ReadContent(context.Background(), "file123")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadContent_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.ReadContent(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadContent_IDEscaped(t *testing.T) {
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`x`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.ReadContent(context.Background(), "weird/id")
	require.NoError(t, err)
	assert.Equal(t, "/files/weird%2Fid", gotPath)
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name      string
		container string
		query     string
		want      string
	}{
		{"both empty", "", "", ""},
		{"container only", "f1", "", "'f1' in parents"},
		{"query only", "", "name = 'x'", "name = 'x'"},
		{"merged", "f1", "name = 'x'", "'f1' in parents and (name = 'x')"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildQuery(tt.container, tt.query))
		})
	}
}
