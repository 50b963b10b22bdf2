package engine

import (
	"context"
	"sync"
	"time"

	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
)

// DefaultTickHz is the frame rate the engine is tuned for.
const DefaultTickHz = 60

// Ticker drives Advance in real time. Each frame receives the real time elapsed
// since the previous one, in seconds.
// It does NOT know about GameState: the callback owns that.
type Ticker struct {
	interval time.Duration
	logger   *logger.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTicker creates a ticker firing hz times per second.
func NewTicker(hz int, log *logger.Logger) *Ticker {
	if hz <= 0 {
		hz = DefaultTickHz
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Ticker{
		interval: time.Second / time.Duration(hz),
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// Interval returns the nominal frame period.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Start runs the frame loop until ctx ends or Stop is called. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context, frame func(dt float64)) {
	t.logger.Debug("ticker started", "interval", t.interval)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			t.logger.Debug("ticker stopped by context")
			return
		case <-t.stopChan:
			t.logger.Debug("ticker stopped manually")
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			frame(dt)
		}
	}
}

// Stop ends the frame loop. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}
