package engine

import (
	"math"
	"time"
)

// Accumulator banks elapsed time and fires a fixed-size step every time the bank
// crosses its interval. Large deltas fire multiple steps (catch-up, never dropped).
type Accumulator struct {
	interval time.Duration
	banked   time.Duration
}

// NewAccumulator creates an accumulator firing every interval.
func NewAccumulator(interval time.Duration) *Accumulator {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Accumulator{interval: interval}
}

// Add banks d and returns how many steps are due.
func (a *Accumulator) Add(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	a.banked += d
	n := int(a.banked / a.interval)
	a.banked -= time.Duration(n) * a.interval
	return n
}

// Reset empties the bank.
func (a *Accumulator) Reset() {
	a.banked = 0
}

// secondsToDuration converts a frame delta in seconds, rounding to the nanosecond
// so that repeated decimal deltas add up exactly.
func secondsToDuration(seconds float64) time.Duration {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	if seconds > math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(math.Round(seconds * float64(time.Second)))
}
