package cache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Sternrassler/gh-issue-client/pkg/client"
	"github.com/rs/zerolog"
)

func newQuietFetcher(next client.Doer, store Store) *Fetcher {
	return NewFetcher(next, store).WithLogger(zerolog.Nop())
}

func get(t *testing.T, f *Fetcher, url string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3.html+json")
	resp, err := f.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestFetcher_ServesFreshEntries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "private, max-age=60")
		w.Write([]byte(`{"number":1}`))
	}))
	defer server.Close()

	f := newQuietFetcher(server.Client(), NewMemoryStore())

	first, body1 := get(t, f, server.URL+"/repos/a/b/issues/1")
	second, body2 := get(t, f, server.URL+"/repos/a/b/issues/1")

	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
	if body1 != body2 {
		t.Errorf("cached body %q differs from first response %q", body2, body1)
	}
	if first.Header.Get(HeaderCacheStatus) != "" {
		t.Error("first response should not be marked as a cache hit")
	}
	if second.Header.Get(HeaderCacheStatus) != "HIT" {
		t.Error("second response should be marked as a cache hit")
	}
}

func TestFetcher_RevalidatesStaleEntries(t *testing.T) {
	var hits, conditional atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.Header().Set("Cache-Control", "max-age=0")
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Cache-Control", "max-age=0")
		w.Write([]byte(`{"number":2,"title":"cached"}`))
	}))
	defer server.Close()

	store := NewMemoryStore()
	f := newQuietFetcher(server.Client(), store)

	_, body1 := get(t, f, server.URL+"/repos/a/b/issues/2")
	resp2, body2 := get(t, f, server.URL+"/repos/a/b/issues/2")

	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2", hits.Load())
	}
	if conditional.Load() != 1 {
		t.Errorf("conditional requests = %d, want 1", conditional.Load())
	}
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("revalidated StatusCode = %d, want 200", resp2.StatusCode)
	}
	if body2 != body1 {
		t.Errorf("revalidated body = %q, want %q", body2, body1)
	}
}

func TestFetcher_DoesNotCacheErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	store := NewMemoryStore()
	f := newQuietFetcher(server.Client(), store)

	resp, _ := get(t, f, server.URL+"/repos/a/b/issues/404")
	get(t, f, server.URL+"/repos/a/b/issues/404")

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", resp.StatusCode)
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2", hits.Load())
	}
	if store.Len() != 0 {
		t.Errorf("store has %d entries, want 0", store.Len())
	}
}

func TestFetcher_BypassesNonGET(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := NewMemoryStore()
	f := newQuietFetcher(server.Client(), store)

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodPost, server.URL+"/repos/a/b/issues", nil)
		resp, err := f.Do(req)
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		resp.Body.Close()
	}

	if hits.Load() != 2 || store.Len() != 0 {
		t.Errorf("POST should bypass the cache (hits=%d, entries=%d)", hits.Load(), store.Len())
	}
}

func TestFetcher_SeparatesCredentials(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		w.Write([]byte(r.Header.Get("Authorization")))
	}))
	defer server.Close()

	f := newQuietFetcher(server.Client(), NewMemoryStore())

	for _, auth := range []string{"token a", "token b", "token a"} {
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/repos/a/b/issues/1", nil)
		req.Header.Set("Authorization", auth)
		resp, err := f.Do(req)
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if string(body) != auth {
			t.Errorf("body = %q, want %q", body, auth)
		}
	}

	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2", hits.Load())
	}
}

func TestFetcher_WrapsClientDoer(t *testing.T) {
	var inner client.Doer = client.New(http.DefaultClient)
	var outer client.Doer = NewFetcher(inner, NewMemoryStore())
	if _, ok := outer.(*Fetcher); !ok {
		t.Error("cache.Fetcher should satisfy client.Doer")
	}
}
