package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo)

	l.Event("ZONE_ROTATED", "run-1", "zone 1 -> 2")

	out := buf.String()
	assert.Contains(t, out, "type=ZONE_ROTATED")
	assert.Contains(t, out, "actor=run-1")
	assert.Contains(t, out, `details="zone 1 -> 2"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)

	l.Info("hidden")
	l.Debug("hidden too")
	l.Warn("shown", "k", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown k=1")
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo).With("session", "abc")

	l.Info("hello")

	assert.Contains(t, buf.String(), "session=abc")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNopDiscards(t *testing.T) {
	// Must not panic
	Nop().Error("nothing", "k", "v")
}
