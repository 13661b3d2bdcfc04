package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/gh-issue-client/pkg/cache"
	"github.com/Sternrassler/gh-issue-client/pkg/client"
	"github.com/Sternrassler/gh-issue-client/pkg/config"
	"github.com/Sternrassler/gh-issue-client/pkg/issues"
	"github.com/Sternrassler/gh-issue-client/pkg/logging"
	"github.com/Sternrassler/gh-issue-client/pkg/notify"
	"github.com/Sternrassler/gh-issue-client/pkg/pagination"
	"github.com/Sternrassler/gh-issue-client/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app holds the clients shared by all commands.
type app struct {
	cfg    config.Config
	direct client.Doer
	cached client.Doer
	redis  *redis.Client
	logger zerolog.Logger
}

// newApp wires the HTTP client, the response cache and the loggers.
// The cache uses Redis when cfg.RedisURL is set and memory otherwise.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		direct: client.New(client.NewHTTPClient(cfg.Timeout)),
		logger: logging.NewLogger(logging.ComponentServer),
	}

	var store cache.Store = cache.NewMemoryStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = cache.NewManager(a.redis)
		a.logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	}
	a.cached = cache.NewFetcher(a.direct, store)

	return a, nil
}

// Close releases the Redis connection, if any.
func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// issueFetcher returns a fetcher whose rate-limit warning is scoped to one
// run or request.
func (a *app) issueFetcher(publisher notify.Publisher) *issues.Fetcher {
	guard := ratelimit.NewGuard(&ratelimit.OnceState{}, publisher, logging.NewLogger(logging.ComponentRateLimit))
	return issues.NewFetcher(a.cached, guard, publisher)
}

func (a *app) pageFetcher() *pagination.Fetcher {
	return &pagination.Fetcher{Doer: a.direct, MaxPages: a.cfg.MaxPages}
}

// listURL resolves target against the configured API base unless it is
// already absolute.
func (a *app) listURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return a.cfg.APIBase() + target
}

// sameAPIHost reports whether target is on the configured API host, so
// credentials are never sent elsewhere.
func (a *app) sameAPIHost(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	api, err := url.Parse(a.cfg.APIBase())
	if err != nil {
		return false
	}
	return u.Scheme == api.Scheme && u.Host == api.Host
}

func notifier() notify.Publisher {
	return notify.NewLogPublisher(logging.NewLogger(logging.ComponentNotify))
}
