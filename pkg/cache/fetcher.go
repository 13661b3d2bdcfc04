package cache

import (
	"net/http"
	"time"

	"github.com/Sternrassler/gh-issue-client/pkg/client"
	"github.com/Sternrassler/gh-issue-client/pkg/logging"
	"github.com/rs/zerolog"
)

// HeaderCacheStatus marks responses served from the cache.
const HeaderCacheStatus = "X-Cache-Status"

var _ client.Doer = (*Fetcher)(nil)

// Fetcher is a cache-aware Doer. Fresh entries are served without a
// request; stale entries with validators are revalidated with a
// conditional request, which GitHub does not count against the quota.
// Only GET requests with 200 responses are cached.
type Fetcher struct {
	next   client.Doer
	store  Store
	logger zerolog.Logger
}

// NewFetcher wraps next with store.
func NewFetcher(next client.Doer, store Store) *Fetcher {
	if next == nil {
		next = http.DefaultClient
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Fetcher{
		next:   next,
		store:  store,
		logger: logging.NewLogger(logging.ComponentCache),
	}
}

// WithLogger returns a copy of f that logs to logger.
func (f *Fetcher) WithLogger(logger zerolog.Logger) *Fetcher {
	return &Fetcher{next: f.next, store: f.store, logger: logger}
}

// Do implements client.Doer.
func (f *Fetcher) Do(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return f.next.Do(req)
	}

	ctx := req.Context()
	key := KeyForRequest(req)

	cached, err := f.store.Get(ctx, key)
	if err != nil && err != ErrCacheMiss {
		f.logger.Warn().Err(err).Str("endpoint", req.URL.Path).Msg("Cache get error")
	}

	if cached != nil && !cached.IsExpired() {
		f.logger.Debug().
			Str("endpoint", req.URL.Path).
			Dur("ttl", cached.TTL()).
			Dur("age", cached.Age()).
			Msg("Serving fresh cache entry")
		return EntryToResponse(cached, req), nil
	}

	outgoing := req
	if ShouldMakeConditionalRequest(cached) {
		outgoing = req.Clone(ctx)
		AddConditionalHeaders(outgoing, cached)
		ConditionalRequestsSent.Inc()
		f.logger.Debug().
			Str("endpoint", req.URL.Path).
			Str("etag", cached.ETag).
			Msg("Making conditional request")
	}

	resp, err := f.next.Do(outgoing)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		resp.Body.Close()
		NotModifiedResponses.Inc()

		cached.Expires = parseFreshness(resp.Header)
		cached.CachedAt = time.Now()
		if err := f.store.Set(ctx, key, cached); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}

		f.logger.Debug().Str("endpoint", req.URL.Path).Msg("304 Not Modified - using cache")
		return EntryToResponse(cached, req), nil
	}

	if resp.StatusCode == http.StatusOK {
		entry, err := ResponseToEntry(resp)
		if err != nil {
			f.logger.Warn().Err(err).Msg("Failed to create cache entry")
			return resp, nil
		}
		if err := f.store.Set(ctx, key, entry); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			f.logger.Debug().
				Str("endpoint", req.URL.Path).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}
