package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// pagedServer serves n pages; page i (1-based) links to "c<i+1>" until the last.
// failAt > 0 makes that page return 500.
func pagedServer(t *testing.T, n, failAt int, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		page := int(atomic.AddInt32(hits, 1))

		want := ""
		if page > 1 {
			want = fmt.Sprintf("c%d", page)
		}
		assert.Equal(t, want, r.URL.Query().Get("next_page"))
		if page == 1 {
			assert.False(t, r.URL.Query().Has("next_page"))
		}

		if page == failAt {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"boom"}`))
			return
		}
		body := map[string]any{
			"items": []map[string]any{{"ticker": fmt.Sprintf("T%d", page)}},
		}
		if page < n {
			body["next_page"] = fmt.Sprintf("c%d", page+1)
		}
		json.NewEncoder(w).Encode(body)
	}))
}

func newTestClient(url string) *Client {
	return NewClient(Options{BaseURL: url, Token: "tok", Timeout: 5 * time.Second})
}

func readPagesFile(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var pages []map[string]any
	require.NoError(t, json.Unmarshal(data, &pages), string(data))
	return pages
}

func TestFetchAllPages(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("%d pages", n), func(t *testing.T) {
			var hits int32
			srv := pagedServer(t, n, 0, &hits)
			defer srv.Close()

			path := filepath.Join(t.TempDir(), "output.json")
			pages, err := newTestClient(srv.URL).FetchAllPages(context.Background(), path)
			require.NoError(t, err)

			assert.Equal(t, int32(n), atomic.LoadInt32(&hits))
			require.Len(t, pages, n)
			for i, p := range pages {
				items := p.Items()
				require.Len(t, items, 1)
				assert.Equal(t, fmt.Sprintf("T%d", i+1), items[0].Get("ticker").String())
			}
			assert.False(t, pages[n-1].HasNext)

			onDisk := readPagesFile(t, path)
			require.Len(t, onDisk, n)
		})
	}
}

func TestFetchAllPages_StopsOnHTTPError(t *testing.T) {
	const n, failAt = 5, 3
	var hits int32
	srv := pagedServer(t, n, failAt, &hits)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "output.json")
	pages, err := newTestClient(srv.URL).FetchAllPages(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, int32(failAt), atomic.LoadInt32(&hits))
	assert.Len(t, pages, failAt-1)
	assert.Len(t, readPagesFile(t, path), failAt-1)
}

func TestFetchAllPages_FirstPageFails(t *testing.T) {
	var hits int32
	srv := pagedServer(t, 3, 1, &hits)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "output.json")
	pages, err := newTestClient(srv.URL).FetchAllPages(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Empty(t, readPagesFile(t, path))
}

func TestFetchAllPages_InvalidBodyStops(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Write([]byte(`{"next_page":"x","items":[]}`))
			return
		}
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "output.json")
	pages, err := newTestClient(srv.URL).FetchAllPages(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	assert.Len(t, readPagesFile(t, path), 1)
}

func TestFetchAllPages_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	path := filepath.Join(t.TempDir(), "output.json")
	pages, err := newTestClient(url).FetchAllPages(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Empty(t, readPagesFile(t, path))
}

func TestFetchAllPages_CreateFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := newTestClient("http://127.0.0.1:1").FetchAllPages(context.Background(), filepath.Join(blocker, "out.json"))
	assert.Error(t, err)
}

func TestFetchPage_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), "")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestPageURL(t *testing.T) {
	c := newTestClient("https://example.com/list?limit=10")

	u, err := c.PageURL("")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/list?limit=10", u)

	u, err = c.PageURL("abc def")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/list?limit=10&next_page=abc+def", u)

	_, err = newTestClient("://bad").PageURL("")
	assert.Error(t, err)
}

func TestRequestPacing(t *testing.T) {
	var hits int32
	srv := pagedServer(t, 3, 0, &hits)
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Token: "tok", RequestsPerSecond: 20})
	start := time.Now()
	pages, err := c.FetchAllPages(context.Background(), filepath.Join(t.TempDir(), "out.json"))
	require.NoError(t, err)
	assert.Len(t, pages, 3)
	// burst of 1 at 20/s: two waits of ~50ms
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestFetchAllPagesLogsWrittenCount(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	var hits int32
	srv := pagedServer(t, 3, 3, &hits)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "output.json")
	pages, err := newTestClient(srv.URL).FetchAllPages(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	stopped := logs.FilterMessage("api: pagination stopped").All()
	require.Len(t, stopped, 1)
	assert.Equal(t, int64(2), stopped[0].ContextMap()["written"])

	srv2 := pagedServer(t, 2, 0, new(int32))
	defer srv2.Close()
	_, err = newTestClient(srv2.URL).FetchAllPages(context.Background(), path)
	require.NoError(t, err)

	done := logs.FilterMessage("api: pagination complete").All()
	require.Len(t, done, 1)
	assert.Equal(t, int64(2), done[0].ContextMap()["written"])
	assert.Equal(t, int64(2), done[0].ContextMap()["pages"])
}
