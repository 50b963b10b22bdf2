package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestAccumulatorFiresOnThreshold(t *testing.T) {
	acc := NewAccumulator(40 * time.Millisecond)

	assert.Equal(t, 0, acc.Add(39*time.Millisecond))
	assert.Equal(t, 1, acc.Add(1*time.Millisecond))
	assert.Equal(t, time.Duration(0), acc.banked)
}

func TestAccumulatorCatchesUp(t *testing.T) {
	acc := NewAccumulator(40 * time.Millisecond)

	assert.Equal(t, 25, acc.Add(time.Second+5*time.Millisecond))
	assert.Equal(t, 5*time.Millisecond, acc.banked)
}

func TestAccumulatorReset(t *testing.T) {
	acc := NewAccumulator(time.Second)
	acc.Add(1500 * time.Millisecond)
	acc.Reset()

	assert.Equal(t, time.Duration(0), acc.banked)
	assert.Equal(t, 0, acc.Add(500*time.Millisecond), "reset discards the banked half step")
}

func TestSecondsToDurationIsExactForDecimalSteps(t *testing.T) {
	var total time.Duration
	for i := 0; i < 150; i++ {
		total += secondsToDuration(0.1)
	}
	assert.Equal(t, 15*time.Second, total)

	assert.Equal(t, time.Duration(0), secondsToDuration(-1))
	assert.Equal(t, 40*time.Millisecond, secondsToDuration(0.04))
}

func TestAccumulatorGranularityIndependence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Split 15s into arbitrary millisecond chunks.
		remaining := 15000
		acc := NewAccumulator(15 * time.Second)
		fires := 0
		for remaining > 0 {
			chunk := rapid.IntRange(1, remaining).Draw(t, "chunk")
			fires += acc.Add(time.Duration(chunk) * time.Millisecond)
			remaining -= chunk
		}
		if fires != 1 {
			t.Fatalf("fires = %d, want 1", fires)
		}
	})
}
