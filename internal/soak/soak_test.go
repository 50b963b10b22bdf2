package soak

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ComfortBath/server/internal/domain/bath"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/effects"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/rules"
)

func seeds(n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(i + 1)
	}
	return out
}

func TestAutopilotHoldsInvariants(t *testing.T) {
	results, err := Run(context.Background(), Options{Seeds: seeds(8), Duration: 180}, nil)
	require.NoError(t, err)
	require.Len(t, results, 8)

	for _, r := range results {
		assert.Empty(t, r.Violations, "seed %d", r.Seed)
		assert.Positive(t, r.Frames, "seed %d", r.Seed)
		assert.NotEmpty(t, r.RunID)
	}
}

func TestIdlePlayerFailsEarly(t *testing.T) {
	idle := func() Policy { return Idle{} }
	results, err := Run(context.Background(), Options{Seeds: seeds(4), Duration: 60, NewPolicy: idle}, nil)
	require.NoError(t, err)

	for _, r := range results {
		assert.True(t, r.Passed(), "seed %d: %v", r.Seed, r.Violations)
		assert.Equal(t, bath.StatusFailure, r.Status)
		assert.Greater(t, r.Survived, rules.GracePeriod)
		assert.Less(t, r.Survived, 10.0)
	}
}

func TestAutopilotOutlastsIdle(t *testing.T) {
	opts := Options{Seeds: []uint64{42}, Duration: 30}
	piloted, err := Run(context.Background(), opts, nil)
	require.NoError(t, err)

	opts.NewPolicy = func() Policy { return Idle{} }
	idle, err := Run(context.Background(), opts, nil)
	require.NoError(t, err)

	assert.Greater(t, piloted[0].Survived, idle[0].Survived)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{Seeds: seeds(2), Duration: 600}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAutopilotChoices(t *testing.T) {
	base := bath.GameState{
		GameStatus:      bath.StatusPlaying,
		TargetZone:      2,
		DecayMultiplier: 1,
	}

	s := base
	s.CurrentTemperature = rules.ZoneCenter(2)
	assert.Equal(t, PressNone, NewAutopilot().Decide(s, 0.016), "already centred")

	s.CurrentTemperature = 0.2
	assert.Equal(t, PressUp, NewAutopilot().Decide(s, 0.016))

	s.IsControlsReversed = true
	s.InterferenceEvents = []bath.InterferenceEvent{{ID: 1, Kind: bath.KindControlsReversed, RemainingTime: 3}}
	assert.Equal(t, PressCenter, NewAutopilot().Decide(s, 0.016), "clears reversal first")

	s = base
	s.CurrentTemperature = 0.9
	s.InterferenceEvents = []bath.InterferenceEvent{{ID: 1, Kind: bath.KindFallingItems, RemainingTime: 3}}
	s.FallingObjects = []bath.FallingObject{{ID: 2, Kind: bath.ItemRubberDuck, Y: effects.CatchBandTop + 0.01, ComfortEffect: 0.08}}
	assert.Equal(t, PressCenter, NewAutopilot().Decide(s, 0.016), "catches a good item")

	s.FallingObjects[0].ComfortEffect = -0.1
	assert.Equal(t, PressDown, NewAutopilot().Decide(s, 0.016), "ignores a bad item")
}

func TestAutopilotCooldown(t *testing.T) {
	s := bath.GameState{GameStatus: bath.StatusPlaying, TargetZone: 3, CurrentTemperature: 0.1}
	a := NewAutopilot()

	assert.Equal(t, PressUp, a.Decide(s, 0.016))
	assert.Equal(t, PressNone, a.Decide(s, 0.016))
	assert.Equal(t, PressUp, a.Decide(s, a.Reaction))
}
