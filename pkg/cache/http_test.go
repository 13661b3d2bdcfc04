package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		wantErr bool
	}{
		{
			name: "github issue response",
			resp: &http.Response{
				StatusCode: 200,
				Header: http.Header{
					"Cache-Control": []string{"private, max-age=60, s-maxage=60"},
					"Last-Modified": []string{time.Now().Add(-1 * time.Hour).Format(http.TimeFormat)},
					"Etag":          []string{`W/"abc123"`},
					"Content-Type":  []string{"application/json; charset=utf-8"},
				},
				Body: io.NopCloser(bytes.NewReader([]byte(`{"number": 1}`))),
			},
		},
		{
			name: "response without caching headers",
			resp: &http.Response{
				StatusCode: 200,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(bytes.NewReader([]byte(`[]`))),
			},
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ResponseToEntry(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResponseToEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			body, _ := io.ReadAll(tt.resp.Body)
			if !bytes.Equal(body, entry.Data) {
				t.Errorf("restored body = %q, entry data = %q", body, entry.Data)
			}
			if entry.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %d, want %d", entry.StatusCode, tt.resp.StatusCode)
			}
			if entry.ETag != tt.resp.Header.Get("ETag") {
				t.Errorf("ETag = %q, want %q", entry.ETag, tt.resp.Header.Get("ETag"))
			}
			if entry.IsExpired() {
				t.Error("new entry should be fresh")
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &CacheEntry{
		Data:       []byte(`{"title":"Fix bug"}`),
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
	}
	req, _ := http.NewRequest(http.MethodGet, "https://api.github.com/repos/a/b/issues/1", nil)

	resp := EntryToResponse(entry, req)
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if resp.Header.Get(HeaderCacheStatus) != "HIT" {
		t.Errorf("%s = %q, want HIT", HeaderCacheStatus, resp.Header.Get(HeaderCacheStatus))
	}
	if entry.Headers.Get(HeaderCacheStatus) != "" {
		t.Error("EntryToResponse mutated the cached headers")
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"title":"Fix bug"}` {
		t.Errorf("body = %q", body)
	}
	if resp.Request != req {
		t.Error("response should reference the request")
	}
}

func TestParseFreshness(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		headers http.Header
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "max-age",
			headers: http.Header{"Cache-Control": []string{"private, max-age=60, s-maxage=60"}},
			wantMin: 59 * time.Second,
			wantMax: 61 * time.Second,
		},
		{
			name:    "no-cache",
			headers: http.Header{"Cache-Control": []string{"no-cache"}},
			wantMin: -time.Second,
			wantMax: time.Second,
		},
		{
			name:    "expires header",
			headers: http.Header{"Expires": []string{now.Add(10 * time.Minute).UTC().Format(http.TimeFormat)}},
			wantMin: 9 * time.Minute,
			wantMax: 11 * time.Minute,
		},
		{
			name:    "expires in the past",
			headers: http.Header{"Expires": []string{now.Add(-10 * time.Minute).UTC().Format(http.TimeFormat)}},
			wantMin: -time.Second,
			wantMax: time.Second,
		},
		{
			name:    "invalid expires",
			headers: http.Header{"Expires": []string{"soon"}},
			wantMin: DefaultTTL - time.Second,
			wantMax: DefaultTTL + time.Second,
		},
		{
			name:    "no headers",
			headers: http.Header{},
			wantMin: DefaultTTL - time.Second,
			wantMax: DefaultTTL + time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFreshness(tt.headers).Sub(now)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("freshness = %s, want between %s and %s", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name             string
		entry            *CacheEntry
		wantIfNoneMatch  string
		wantIfModifiedSc string
	}{
		{
			name:            "etag preferred",
			entry:           &CacheEntry{ETag: `"v1"`, LastModified: lastMod},
			wantIfNoneMatch: `"v1"`,
		},
		{
			name:             "last modified only",
			entry:            &CacheEntry{LastModified: lastMod},
			wantIfModifiedSc: lastMod.Format(http.TimeFormat),
		},
		{
			name:  "no validators",
			entry: &CacheEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "https://api.github.com/x", nil)
			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get("If-None-Match"); got != tt.wantIfNoneMatch {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantIfNoneMatch)
			}
			if got := req.Header.Get("If-Modified-Since"); got != tt.wantIfModifiedSc {
				t.Errorf("If-Modified-Since = %q, want %q", got, tt.wantIfModifiedSc)
			}
			if ShouldMakeConditionalRequest(tt.entry) != (tt.wantIfNoneMatch != "" || tt.wantIfModifiedSc != "") {
				t.Error("ShouldMakeConditionalRequest disagrees with AddConditionalHeaders")
			}
		})
	}
}

func TestAddConditionalHeaders_NilInputs(t *testing.T) {
	AddConditionalHeaders(nil, &CacheEntry{ETag: "x"})

	req, _ := http.NewRequest(http.MethodGet, "https://api.github.com/x", nil)
	AddConditionalHeaders(req, nil)
	if len(req.Header) != 0 {
		t.Errorf("headers added for nil entry: %v", req.Header)
	}
	if ShouldMakeConditionalRequest(nil) {
		t.Error("ShouldMakeConditionalRequest(nil) = true")
	}
}
