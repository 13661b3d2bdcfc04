// Package cache provides the cache-aware fetch primitive for GitHub API
// requests, with Redis or in-memory storage and ETag revalidation.
package cache

import (
	"net/http"
	"time"
)

// CacheEntry is a stored 200 reply from the GitHub REST API, usually an
// issue rendered with the v3.html+json media type. Entries are keyed by
// CacheKey, so each one belongs to a single URL, Accept value and
// credential.
type CacheEntry struct {
	// Data is the raw body as GitHub sent it, e.g. the issue object with
	// body_html and labels. It is replayed byte for byte.
	Data []byte `json:"data"`

	// ETag is GitHub's entity tag, sent back as If-None-Match. GitHub
	// answers a matching tag with 304, which does not count against the
	// rate limit.
	ETag string `json:"etag"`

	// Expires ends freshness. GitHub issue replies carry
	// "Cache-Control: private, max-age=60".
	Expires time.Time `json:"expires"`

	// LastModified is the issue's Last-Modified time, sent back as
	// If-Modified-Since when there is no ETag.
	LastModified time.Time `json:"last_modified"`

	// StatusCode is always 200; error replies and 304s are never stored.
	StatusCode int `json:"status_code"`

	// Headers are GitHub's response headers. The X-RateLimit-* values
	// describe the quota at CachedAt, not at replay time.
	Headers http.Header `json:"headers"`

	// CachedAt is when the reply was stored or last revalidated.
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired reports whether GitHub must be asked again before the entry
// is replayed.
func (e *CacheEntry) IsExpired() bool {
	return e.freshFor(time.Now()) <= 0
}

// TTL is the remaining freshness, 0 once expired.
func (e *CacheEntry) TTL() time.Duration {
	if ttl := e.freshFor(time.Now()); ttl > 0 {
		return ttl
	}
	return 0
}

// Age is how long ago the reply was stored. Zero when CachedAt is unset.
func (e *CacheEntry) Age() time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt)
}

// CanRevalidate reports whether a stale entry can be checked with a
// conditional request instead of a full refetch.
func (e *CacheEntry) CanRevalidate() bool {
	return e.ETag != "" || !e.LastModified.IsZero()
}

func (e *CacheEntry) freshFor(now time.Time) time.Duration {
	return e.Expires.Sub(now)
}
