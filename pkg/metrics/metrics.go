// Package metrics exposes the Prometheus registry used by the GitHub
// client packages. All metrics are defined in their respective packages
// (client, cache, ratelimit, issues, pagination) via promauto to keep
// the packages free of circular dependencies.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the GitHub client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads back everything registered on Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Names lists every metric family the client packages register.
var Names = []string{
	"github_requests_total",
	"github_request_duration_seconds",
	"github_errors_total",
	"github_ratelimit_remaining",
	"github_ratelimit_exhausted_total",
	"github_issues_fetched_total",
	"github_issue_batch_duration_seconds",
	"github_pages_fetched_total",
	"github_page_items_total",
	"github_cache_hits_total",
	"github_cache_misses_total",
	"github_cache_size_bytes",
	"github_conditional_requests_total",
	"github_304_responses_total",
	"github_cache_errors_total",
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - github_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - github_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - github_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - github_ratelimit_remaining (Gauge): Last seen X-RateLimit-Remaining
//   - github_ratelimit_exhausted_total (Counter): 403 responses with an exhausted quota
//
// Issue Metrics (pkg/issues):
//   - github_issues_fetched_total{outcome} (Counter): Issues fetched by outcome (ok, error)
//   - github_issue_batch_duration_seconds (Histogram): Duration of a whole document batch
//
// Pagination Metrics (pkg/pagination):
//   - github_pages_fetched_total (Counter): Pages fetched
//   - github_page_items_total (Counter): Items collected from pages
//
// Cache Metrics (pkg/cache):
//   - github_cache_hits_total{layer} (Counter): Cache hits by layer
//   - github_cache_misses_total (Counter): Cache misses
//   - github_cache_size_bytes{layer} (Gauge): Current cache size in bytes
//   - github_conditional_requests_total (Counter): Conditional requests sent
//   - github_304_responses_total (Counter): 304 Not Modified responses
//   - github_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Issue Failure Rate
//   sum(rate(github_issues_fetched_total{outcome="error"}[5m])) /
//   sum(rate(github_issues_fetched_total[5m]))
//
//   # Quota Status
//   github_ratelimit_remaining < 10
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(github_request_duration_seconds_bucket[5m]))
//
//   # Revalidation Rate
//   rate(github_304_responses_total[5m]) / rate(github_requests_total[5m])
