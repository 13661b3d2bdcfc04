// Package cache provides the cache-aware fetch primitive used for GitHub
// issue requests.
//
// A Fetcher sits in front of any Doer (usually *http.Client) and stores
// 200 responses in a Store:
//
//   - Freshness comes from Cache-Control max-age, then Expires, then DefaultTTL
//   - Fresh entries are returned without touching the network
//   - Stale entries with an ETag or Last-Modified are revalidated with
//     If-None-Match / If-Modified-Since; a 304 refreshes the entry
//   - Keys include host, path, query, Accept and a hash of Authorization
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	fetcher := cache.NewFetcher(http.DefaultClient, cache.NewManager(redisClient))
//
//	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"/issues/42", nil)
//	resp, err := fetcher.Do(req)
//
// Without Redis, NewMemoryStore keeps entries for the life of the process.
//
// # Metrics
//
//   - github_cache_hits_total{layer} - Cache hits (redis, memory)
//   - github_cache_misses_total - Cache misses
//   - github_cache_size_bytes{layer} - Bytes written
//   - github_conditional_requests_total - Revalidation requests sent
//   - github_304_responses_total - Revalidations answered with 304
//   - github_cache_errors_total{operation} - Store errors
//
// List traversal (package pagination) deliberately does not go through
// this cache.
package cache
