// Package optimization provides concurrency tuning presets for the session server.
package optimization

import (
	"runtime"

	"github.com/MRamiBalles/ComfortBath/server/internal/platform/metrics"
)

// Profile names accepted by ForProfile.
const (
	ProfileDefault = "default"
	ProfileStress  = "stress"
	ProfileLow     = "low"
)

// Config holds tuned parameters for a load profile.
type Config struct {
	// Channel buffer sizes
	EventChannelBuffer int // journal writer queue
	ClientSendBuffer   int // per WebSocket
	ClientActionBuffer int // decoded actions waiting for the simulate loop

	// Frame rates
	TickHz     int
	SnapshotHz int

	// Connection pools
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Rate limiting
	MaxActionsPerSecond int // per client
	MaxClients          int // per server
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		EventChannelBuffer: 1024, // Handle bursts
		ClientSendBuffer:   64,
		ClientActionBuffer: 32,

		TickHz:     60,
		SnapshotHz: 20,

		DBMaxOpenConns: numCPU * 2,
		DBMaxIdleConns: numCPU,

		MaxActionsPerSecond: 30,
		MaxClients:          200,
	}
}

// StressTestConfig returns aggressive settings for stress testing.
func StressTestConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		EventChannelBuffer: 4096,
		ClientSendBuffer:   128,
		ClientActionBuffer: 64,

		TickHz:     60,
		SnapshotHz: 10,

		DBMaxOpenConns: numCPU * 4,
		DBMaxIdleConns: numCPU * 2,

		MaxActionsPerSecond: 100,
		MaxClients:          1000,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	return &Config{
		EventChannelBuffer: 64,
		ClientSendBuffer:   8,
		ClientActionBuffer: 8,

		TickHz:     30,
		SnapshotHz: 10,

		DBMaxOpenConns: 2,
		DBMaxIdleConns: 1,

		MaxActionsPerSecond: 10,
		MaxClients:          20,
	}
}

// ForProfile returns the preset for name; unknown names get the default.
func ForProfile(name string) (*Config, bool) {
	switch name {
	case ProfileDefault, "":
		return DefaultConfig(), true
	case ProfileStress:
		return StressTestConfig(), true
	case ProfileLow:
		return LowResourceConfig(), true
	default:
		return DefaultConfig(), false
	}
}

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	IncreaseEventBuffer   bool
	IncreaseSendBuffer    bool
	IncreaseDBConnections bool
	LowerSnapshotRate     bool
	Notes                 []string
}

// Empty reports whether nothing needs changing.
func (r *Recommendations) Empty() bool {
	return len(r.Notes) == 0
}

// Analyze examines current metrics and returns tuning recommendations.
func Analyze(s metrics.Snapshot, cfg *Config) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	// A frame slower than its budget starves every other session.
	if cfg.TickHz > 0 && s.Tick.MaxLatencyMs > 1000.0/float64(cfg.TickHz) {
		rec.LowerSnapshotRate = true
		rec.Notes = append(rec.Notes, "Frame latency exceeds the tick budget - lower the snapshot rate")
	}

	if s.Journal.MaxWriteLatMs > 50 {
		rec.IncreaseDBConnections = true
		rec.Notes = append(rec.Notes, "Journal write latency exceeds 50ms - increase DB connections")
	}
	if s.Journal.Errors > 0 {
		rec.IncreaseEventBuffer = true
		rec.Notes = append(rec.Notes, "Journal write errors or drops detected - increase the event buffer")
	}

	if s.WebSocket.Errors > 0 {
		rec.IncreaseSendBuffer = true
		rec.Notes = append(rec.Notes, "WebSocket errors detected - increase client send buffer")
	}

	return rec
}

// ApplyRecommendations modifies config based on recommendations.
func ApplyRecommendations(config *Config, rec *Recommendations) *Config {
	if rec.IncreaseEventBuffer {
		config.EventChannelBuffer *= 2
	}
	if rec.IncreaseSendBuffer {
		config.ClientSendBuffer *= 2
	}
	if rec.IncreaseDBConnections {
		config.DBMaxOpenConns = int(float64(config.DBMaxOpenConns) * 1.5)
		config.DBMaxIdleConns = int(float64(config.DBMaxIdleConns) * 1.5)
	}
	if rec.LowerSnapshotRate && config.SnapshotHz > 5 {
		config.SnapshotHz /= 2
	}
	return config
}
