package domain

import (
	"context"
	"log/slog"
)

// Severity is the level attached to a log message emitted by the forwarder.
type Severity string

const (
	// SeverityError is for failed connections and sends.
	SeverityError Severity = "error"
	// SeverityWarn is for socket timeouts and skipped input.
	SeverityWarn Severity = "warn"
	// SeverityLog is for routine progress messages.
	SeverityLog Severity = "log"
	// SeverityInfo is for lifecycle messages.
	SeverityInfo Severity = "info"
	// SeverityDebug is for verbose tracing.
	SeverityDebug Severity = "debug"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// Level maps the severity onto a slog level. Unknown severities log at info.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityError:
		return slog.LevelError
	case SeverityWarn:
		return slog.LevelWarn
	case SeverityDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Logger receives diagnostic messages from the forwarder.
// Where and how they are written is up to the implementation.
type Logger interface {
	Log(severity Severity, message string)
}

// LoggerFunc adapts a plain function to the Logger interface.
type LoggerFunc func(severity Severity, message string)

// Log calls f(severity, message).
func (f LoggerFunc) Log(severity Severity, message string) {
	f(severity, message)
}

// SlogLogger writes forwarder messages to a slog.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger means slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Log writes message at the slog level matching severity.
func (l *SlogLogger) Log(severity Severity, message string) {
	l.logger.Log(context.Background(), severity.Level(), message, "severity", severity.String())
}

// NopLogger discards everything.
type NopLogger struct{}

// Log does nothing.
func (NopLogger) Log(_ Severity, _ string) {}

// Ensure the adapters implement Logger.
var (
	_ Logger = LoggerFunc(nil)
	_ Logger = (*SlogLogger)(nil)
	_ Logger = NopLogger{}
)
