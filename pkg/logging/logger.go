// Package logging configures zerolog for the gallery feed and hands out
// per-component loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

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

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// Service is added to every entry when set.
	Service string
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
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger
	return logger
}

// ParseLevel validates a level name.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", level)
	}
}

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

// NewLogger creates a logger for component from the global logger.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Discard returns a logger that drops everything. The terminal UI uses it
// while it owns the screen.
func Discard() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// Log Level Guidelines:
//
// Debug: flow details
//   - Query cache begin/write/fail and invalidation counts
//   - Fetch de-duplication (key, shared loads, loader duration)
//   - Pagination transitions, cursors, dropped duplicates, discarded results
//   - Conditional requests and ETags
//
// Info: lifecycle
//   - Successful uploads and the number of invalidated entries
//   - Server and UI startup/shutdown
//
// Warn: failures the feed survives
//   - Failed page loads (first and next)
//   - Failed uploads
//   - Response cache errors (request proceeds uncached)
//
// Error: the process cannot continue
//   - Configuration errors
//   - Listener failures
//
// Context Fields:
//   - component: emitting component (feed, fetch-client, gallery-proxy, ...)
//   - feed: query name of a pagination controller
//   - key: canonical query key
//   - generation: pagination generation stamp
//   - cursor: page cursor
//   - path, method, status: HTTP request details
//   - error_class: client, server or network
