// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

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
	ComponentCLI      = "people-finder"
	ComponentFetcher  = "page-fetcher"
	ComponentStream   = "person-stream"
	ComponentSelector = "youngest-selector"
	ComponentConfig   = "config"
	ComponentMetrics  = "metrics"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	// Stdout is reserved for results.
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

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	output := cfg.Output
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

// ParseLevel converts a level name to zerolog.Level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
//   - Page fetch summaries (ids, people, failed)
//   - Consumer stopping a stream
//
// Info: Normal operation events
//   - Stream exhausted, max depth reached
//   - 304 Not Modified responses
//   - Configuration loaded
//
// Warn: Conditions that lose data but keep going
//   - Detail fetch dropped from a page
//   - Person skipped by the selector (phone, age)
//   - Retry attempts, 429 cooldowns
//   - Stream reused after consumption
//
// Error: Error conditions requiring attention
//   - List fetch failed (stream ends early)
//   - Configuration file missing or invalid
//   - Metrics push failed
//
// Context Fields:
//   - endpoint: list or detail
//   - token: list continuation token
//   - id: person id
//   - depth: number of list calls made so far
//   - stream_id: identifier of one stream traversal
//   - status: HTTP status code
//   - error_class: client, server, rate_limit, network, payload, canceled
