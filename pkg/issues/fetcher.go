package issues

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sternrassler/gh-issue-client/pkg/client"
	"github.com/Sternrassler/gh-issue-client/pkg/config"
	"github.com/Sternrassler/gh-issue-client/pkg/logging"
	"github.com/Sternrassler/gh-issue-client/pkg/notify"
	"github.com/Sternrassler/gh-issue-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	issuesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_issues_fetched_total",
		Help: "Total issues fetched by outcome",
	}, []string{"outcome"}) // "ok", "error"

	issueBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "github_issue_batch_duration_seconds",
		Help:    "Duration of a whole issue batch fetch",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	})
)

// Fetcher fetches every issue a document references, concurrently.
type Fetcher struct {
	doer      client.Doer
	guard     *ratelimit.Guard
	publisher notify.Publisher
	logger    zerolog.Logger
}

// NewFetcher creates a Fetcher. doer is the cache-aware fetch primitive
// (usually a *cache.Fetcher); guard and publisher may be nil, in which
// case the process-wide warn state and a discarding publisher are used.
func NewFetcher(doer client.Doer, guard *ratelimit.Guard, publisher notify.Publisher) *Fetcher {
	logger := logging.NewLogger(logging.ComponentIssues)
	if doer == nil {
		doer = client.NewHTTPClient(client.DefaultTimeout)
	}
	if publisher == nil {
		publisher = notify.Discard
	}
	if guard == nil {
		guard = ratelimit.NewGuard(ratelimit.ProcessState(), publisher, logger)
	}
	return &Fetcher{
		doer:      doer,
		guard:     guard,
		publisher: publisher,
		logger:    logger,
	}
}

// WithLogger returns a copy of f that logs to logger.
func (f *Fetcher) WithLogger(logger zerolog.Logger) *Fetcher {
	copied := *f
	copied.logger = logger
	return &copied
}

// FetchAndStore requests {cfg.GitHubAPI}/issues/{n} for every valid issue
// number in refs and returns the index of results.
//
// All requests are in flight at once unless cfg.Concurrency caps them.
// A failing issue never fails the batch: it yields a Result with Err set
// and an error notification. The returned error is non-nil only when ctx
// ends before every request completes; the index is still complete.
func (f *Fetcher) FetchAndStore(ctx context.Context, cfg config.Config, refs ReferenceSource) (Index, error) {
	start := time.Now()
	defer func() {
		issueBatchDuration.Observe(time.Since(start).Seconds())
	}()

	numbers := IssueNumbers(refs)
	headers := client.RequestHeaders(cfg)
	results := make([]Result, len(numbers))

	f.logger.Debug().
		Int("issues", len(numbers)).
		Int("concurrency", cfg.Concurrency).
		Msg("Fetching issues")

	var g errgroup.Group
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}
	for i, number := range numbers {
		g.Go(func() error {
			results[i] = f.fetchIssue(ctx, cfg.APIBase(), headers, number)
			return nil
		})
	}
	// Workers always return nil; per-issue failures are carried in results.
	g.Wait()

	index := make(Index, len(results))
	failed := 0
	for i, r := range results {
		index[numbers[i]] = r
		if !r.OK() {
			failed++
		}
	}

	f.logger.Info().
		Int("issues", len(index)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Issue fetch complete")

	if err := ctx.Err(); err != nil {
		return index, fmt.Errorf("fetch issues: %w", err)
	}
	return index, nil
}

// fetchIssue fetches and normalizes one issue. It never returns without a
// Result for number.
func (f *Fetcher) fetchIssue(ctx context.Context, apiBase string, headers http.Header, number int) Result {
	record := Record{Issue: Issue{Number: number}}
	status := 0

	finish := func(cause error) Result {
		result := Result{Issue: record.Issue}
		if status < 200 || status > 299 || record.Message != "" {
			result.Err = &FetchError{
				Number:  number,
				Status:  status,
				Message: record.Message,
				Err:     cause,
			}
			f.publisher.Publish(notify.TopicError, result.Err.Notification())
			issuesFetchedTotal.WithLabelValues("error").Inc()
		} else {
			issuesFetchedTotal.WithLabelValues("ok").Inc()
		}
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/issues/%d", apiBase, number), nil)
	if err != nil {
		record.Message = err.Error()
		return finish(err)
	}
	req.Header = headers.Clone()

	resp, err := f.doer.Do(req)
	if err != nil {
		f.logger.Warn().Err(err).Int("issue", number).Msg("Issue request failed")
		record.Message = err.Error()
		return finish(err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	f.guard.Check(resp)

	body, err := io.ReadAll(resp.Body)
	var skipped []string
	if err == nil {
		skipped, err = record.Merge(body)
	}
	if err != nil {
		f.logger.Error().Err(err).Int("issue", number).Int("status", status).Msg("Failed to parse issue JSON")
		record.Message = fmt.Sprintf("Error JSON parsing issue #%d from GitHub.", number)
		return finish(err)
	}
	if len(skipped) > 0 {
		f.logger.Debug().Int("issue", number).Strs("fields", skipped).Msg("Ignored issue fields with unexpected types")
	}

	return finish(nil)
}
