// Package client provides the GitHub request headers and an instrumented
// HTTP client shared by the issue and pagination fetchers.
package client

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/gh-issue-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultTimeout is the HTTP client timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

// Prometheus metrics for GitHub requests.
var (
	githubRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_requests_total",
		Help: "Total GitHub API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	githubRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "github_request_duration_seconds",
		Help:    "GitHub API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	githubErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "github_errors_total",
		Help: "Total GitHub API errors by class",
	}, []string{"class"})
)

// Doer executes a single HTTP request. *http.Client, *cache.Fetcher and
// *Client all satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps a Doer with request metrics and logging. It does not retry
// and does not interpret response bodies.
type Client struct {
	next   Doer
	logger zerolog.Logger
}

// NewHTTPClient returns a plain *http.Client with the given timeout
// (DefaultTimeout when zero).
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// New wraps next. A nil next uses NewHTTPClient(DefaultTimeout).
func New(next Doer) *Client {
	if next == nil {
		next = NewHTTPClient(DefaultTimeout)
	}
	return &Client{
		next:   next,
		logger: logging.NewLogger(logging.ComponentClient),
	}
}

// WithLogger returns a copy of c that logs to logger.
func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	return &Client{next: c.next, logger: logger}
}

// Do executes req through the wrapped Doer and records metrics.
// HTTP error statuses are returned as responses, not errors.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	endpoint := EndpointLabel(req.URL.Path)

	startTime := time.Now()
	defer func() {
		githubRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("endpoint", req.URL.Path).
		Str("method", req.Method).
		Msg("Executing GitHub request")

	resp, err := c.next.Do(req)
	if err != nil {
		githubErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		githubRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", req.URL.Path).Msg("HTTP request failed")
		return nil, err
	}

	githubRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if class := Classify(resp, nil); class != "" {
		githubErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", req.URL.Path).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("GitHub request error")
	}

	return resp, nil
}

// EndpointLabel collapses numeric path segments so that per-issue URLs
// share one metric series, e.g. /repos/a/b/issues/42 -> /repos/a/b/issues/:n.
func EndpointLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if segment == "" {
			continue
		}
		if _, err := strconv.Atoi(segment); err == nil {
			segments[i] = ":n"
		}
	}
	return strings.Join(segments, "/")
}
