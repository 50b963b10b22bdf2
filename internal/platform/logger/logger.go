// Package logger provides structured logging for the bath server.
// Every engine transition and session action should be traceable through this.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides structured logging with context.
type Logger struct {
	sl *slog.Logger
}

// NewLogger creates a logger writing text records to stdout at info level.
func NewLogger() *Logger {
	return New(os.Stdout, slog.LevelInfo)
}

// New creates a logger writing text records to w at the given level.
func New(w io.Writer, level slog.Level) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{sl: slog.New(h)}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(io.Discard, slog.LevelError+1)
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sl: l.sl.With(args...)}
}

// Debug logs verbose diagnostics.
func (l *Logger) Debug(msg string, args ...any) {
	l.sl.Debug(msg, args...)
}

// Info logs informational messages.
func (l *Logger) Info(msg string, args ...any) {
	l.sl.Info(msg, args...)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string, args ...any) {
	l.sl.Warn(msg, args...)
}

// Error logs error messages.
func (l *Logger) Error(msg string, args ...any) {
	l.sl.Error(msg, args...)
}

// Event logs a specific game event attributed to an actor (a run or a session).
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.sl.Info("event", "type", eventType, "actor", actorID, "details", details)
}
