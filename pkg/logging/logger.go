// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/Sternrassler/gh-issue-client/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Component names used for the "component" field.
const (
	ComponentClient     = "client"
	ComponentCache      = "cache"
	ComponentRateLimit  = "ratelimit"
	ComponentIssues     = "issues"
	ComponentPagination = "pagination"
	ComponentNotify     = "notify"
	ComponentServer     = "server"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// FromConfig derives the logger configuration from the application config.
func FromConfig(cfg config.Config) Config {
	c := DefaultConfig()
	if cfg.LogLevel != "" {
		c.Level = LogLevel(cfg.LogLevel)
	}
	c.Pretty = cfg.LogPretty
	return c
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit/miss, key, TTL)
//   - Conditional requests and 304 revalidations
//   - Per-page pagination progress
//   - Per-request flow (endpoint, status, duration)
//
// Info: Normal operation events
//   - Issue batch completion (issues, failed, duration)
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - GitHub rate limit exhausted (403 with X-RateLimit-Remaining: 0)
//   - Transport failures for a single issue
//   - Cache errors (fallback to direct request)
//   - Pagination page limit reached
//
// Error: Error conditions requiring attention
//   - Issue payloads that are not valid JSON
//   - Configuration errors
//
// Context Fields:
//   - component: package emitting the event
//   - issue: issue number
//   - endpoint: GitHub path with numeric segments replaced by :n
//   - status: HTTP status code
//   - duration: request or batch duration
//   - error_class: client, server, rate_limit or network
//   - remaining: X-RateLimit-Remaining value
//   - etag: ETag value for conditional requests
