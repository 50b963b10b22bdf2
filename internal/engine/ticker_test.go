package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
)

func TestTickerDeliversPositiveDeltas(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	tk := NewTicker(200, logger.Nop())
	var frames atomic.Int32
	var bad atomic.Int32

	tk.Start(ctx, func(dt float64) {
		frames.Add(1)
		if dt <= 0 {
			bad.Add(1)
		}
	})

	assert.Positive(t, frames.Load())
	assert.Zero(t, bad.Load())
}

func TestTickerStop(t *testing.T) {
	tk := NewTicker(100, nil)
	done := make(chan struct{})

	go func() {
		tk.Start(context.Background(), func(float64) {})
		close(done)
	}()

	tk.Stop()
	tk.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop")
	}
}

func TestTickerDefaultRate(t *testing.T) {
	assert.Equal(t, time.Second/DefaultTickHz, NewTicker(0, nil).Interval())
}
