package ratelimit

import (
	"net/http"

	"github.com/Sternrassler/gh-issue-client/pkg/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// WarningMessage is published the first time exhaustion is detected.
const WarningMessage = "You've run out of GitHub API requests. " +
	"Set githubUser and githubToken in your configuration, or try again later."

// headerCacheStatus is set to "HIT" on responses replayed from the
// response cache. Their quota headers are stale.
const headerCacheStatus = "X-Cache-Status"

// Prometheus metrics for rate limit tracking.
var (
	githubRateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "github_ratelimit_remaining",
		Help: "Requests remaining in the current GitHub rate limit window",
	})

	githubRateLimitExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "github_ratelimit_exhausted_total",
		Help: "Total responses reporting an exhausted GitHub rate limit",
	})
)

// Guard inspects responses for quota exhaustion.
type Guard struct {
	state     WarnState
	publisher notify.Publisher
	logger    zerolog.Logger
}

// NewGuard creates a guard. A nil state gets a fresh OnceState, a nil
// publisher discards notifications.
func NewGuard(state WarnState, publisher notify.Publisher, logger zerolog.Logger) *Guard {
	if state == nil {
		state = &OnceState{}
	}
	if publisher == nil {
		publisher = notify.Discard
	}
	return &Guard{
		state:     state,
		publisher: publisher,
		logger:    logger,
	}
}

// Check reports whether resp signals exhausted quota: status 403 and
// X-RateLimit-Remaining exactly "0". The first detection for the guard's
// WarnState publishes a warning; later detections only return true.
func (g *Guard) Check(resp *http.Response) bool {
	if resp == nil {
		return false
	}

	quota, ok := ParseQuota(resp.Header)
	if ok && resp.Header.Get(headerCacheStatus) != "HIT" {
		githubRateLimitRemaining.Set(float64(quota.Remaining))
	}

	if resp.StatusCode != http.StatusForbidden || resp.Header.Get(HeaderRemaining) != "0" {
		return false
	}

	githubRateLimitExhaustedTotal.Inc()

	if g.state.MarkWarned() {
		g.logger.Warn().
			Int("limit", quota.Limit).
			Dur("reset_in", quota.TimeUntilReset()).
			Msg("GitHub rate limit exhausted")
		g.publisher.Publish(notify.TopicWarning, WarningMessage)
	}

	return true
}

// HasWarned reports whether the guard's state has already warned.
func (g *Guard) HasWarned() bool {
	return g.state.HasWarned()
}
