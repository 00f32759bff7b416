// Package logging configures the global zerolog logger for the crawler.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs every attempt and cache lookup.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs run and batch progress.
	LevelInfo LogLevel = "info"

	// LevelWarn logs failed attempts and exhausted entries.
	LevelWarn LogLevel = "warn"

	// LevelError logs run-level failures only.
	LevelError LogLevel = "error"
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

// ParseLevel accepts a level name case-insensitively; "warning" is an alias
// for warn.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(zerologLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// zerologLevel maps LogLevel to zerolog.Level; unknown values log at info.
func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
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
// Debug: Per-entry detail
//   - Each attempt and its outcome
//   - Cache lookups (hit, stale, miss) and conditional requests
//
// Info: Run progress
//   - Run start and completion with totals
//   - Each batch barrier reached
//   - Metrics listener startup
//
// Warn: Recoverable failures
//   - Failed attempts that will be retried
//   - Entries that exhausted their retry budget
//   - Cache errors (request goes to the network instead)
//
// Error: Run-level failures
//   - Entries rejected before dispatch
//   - Error log or output writes that failed
//   - Configuration errors
//
// Context Fields:
//   - component: emitting component (retry-executor, batch-scheduler, fetch, cache)
//   - site: adapter name
//   - entry: the dictionary entry being processed
//   - attempt / max_attempts: position in the retry budget
//   - batch / batches: position in the run
//   - error_kind: transport, structural_parse, identifier_encoding, sink, configuration, unknown
//   - url / status: request target and HTTP status
//   - duration: elapsed time
