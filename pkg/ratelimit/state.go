// Package ratelimit detects exhausted GitHub API quota and reports it once.
// It reads the X-RateLimit-* response headers; it never blocks, sleeps or
// retries.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// GitHub rate limit response headers.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// WarnState records whether the quota warning has been emitted.
type WarnState interface {
	HasWarned() bool
	// MarkWarned sets the flag and reports whether this call changed it.
	MarkWarned() bool
}

// OnceState is a WarnState backed by an atomic flag. The zero value is
// ready to use and safe for concurrent use.
type OnceState struct {
	warned atomic.Bool
}

// HasWarned implements WarnState.
func (s *OnceState) HasWarned() bool {
	return s.warned.Load()
}

// MarkWarned implements WarnState.
func (s *OnceState) MarkWarned() bool {
	return s.warned.CompareAndSwap(false, true)
}

var processState OnceState

// ProcessState returns the WarnState shared by the whole process. Guards
// built on it warn at most once per process lifetime; it is never reset.
func ProcessState() WarnState {
	return &processState
}

// Quota is the rate limit state reported by one response.
type Quota struct {
	// Limit is the request budget for the current window.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets (zero if unknown).
	ResetAt time.Time `json:"reset_at"`
}

// ParseQuota reads the X-RateLimit-* headers. ok is false when the
// remaining count is missing or not an integer.
func ParseQuota(headers http.Header) (quota Quota, ok bool) {
	remaining, err := strconv.Atoi(headers.Get(HeaderRemaining))
	if err != nil {
		return Quota{}, false
	}
	quota.Remaining = remaining

	if limit, err := strconv.Atoi(headers.Get(HeaderLimit)); err == nil {
		quota.Limit = limit
	}
	if reset, err := strconv.ParseInt(headers.Get(HeaderReset), 10, 64); err == nil {
		quota.ResetAt = time.Unix(reset, 0)
	}

	return quota, true
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time is unknown or has already passed.
func (q Quota) TimeUntilReset() time.Duration {
	if q.ResetAt.IsZero() {
		return 0
	}
	duration := time.Until(q.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}
