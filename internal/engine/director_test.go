package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ComfortBath/server/internal/domain/bath"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/effects"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/rules"
	"github.com/MRamiBalles/ComfortBath/server/internal/events"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
)

func newTestDirector(seed uint64) *Director {
	return NewDirector(rand.New(rand.NewPCG(seed, seed+1)), logger.Nop(), nil)
}

func blankState() bath.GameState {
	return bath.GameState{
		RunID:           "run-test",
		GameStatus:      bath.StatusPlaying,
		DifficultyLevel: 1,
		DecayMultiplier: rules.NormalDecayMultiplier,
	}
}

func TestKindTableIsTotal(t *testing.T) {
	d := newTestDirector(1)
	for _, k := range bath.AllKinds() {
		spec, ok := d.kinds[k]
		require.True(t, ok, "missing %s", k)
		assert.NotNil(t, spec.activate, k)
		assert.NotNil(t, spec.deactivate, k)
		assert.Positive(t, spec.duration, k)
	}
	assert.Equal(t, ControlsReversedDuration, d.Duration(bath.KindControlsReversed))
	assert.Equal(t, FallingItemsDuration, d.Duration(bath.KindFallingItems))
	assert.Equal(t, DefaultDuration, d.Duration(bath.KindColdWind))
	assert.True(t, d.ClickClearable(bath.KindElectricLeakage))
	assert.False(t, d.ClickClearable(bath.KindColdWind))
}

func TestPickRandomKindSkipsActiveBubbles(t *testing.T) {
	d := newTestDirector(2)
	s := blankState()
	d.SpawnKind(&s, bath.KindBubbleObstruction)

	seen := map[bath.InterferenceKind]bool{}
	for i := 0; i < 1000; i++ {
		k := d.PickRandomKind(&s)
		require.NotEqual(t, bath.KindBubbleObstruction, k)
		seen[k] = true
	}
	assert.Len(t, seen, 4)
}

func TestBubbleEventNeverExpires(t *testing.T) {
	d := newTestDirector(3)
	s := blankState()
	ev := d.SpawnKind(&s, bath.KindBubbleObstruction)
	require.True(t, ev.Indefinite())
	n := len(s.BubbleField)
	assert.GreaterOrEqual(t, n, effects.MinBubbles)
	assert.LessOrEqual(t, n, effects.MaxBubbles)

	for i := 0; i < 1000; i++ {
		d.Update(&s, 0.1)
	}

	assert.True(t, s.HasKind(bath.KindBubbleObstruction))
	assert.Len(t, s.BubbleField, n)
}

func TestOverlappingEventsDeactivateOnLastExpiry(t *testing.T) {
	d := newTestDirector(4)
	s := blankState()
	d.SpawnKind(&s, bath.KindControlsReversed)
	d.Update(&s, 2)
	d.SpawnKind(&s, bath.KindControlsReversed)

	d.Update(&s, 3.5) // first one expires
	assert.Equal(t, 1, s.CountKind(bath.KindControlsReversed))
	assert.True(t, s.IsControlsReversed)

	d.Update(&s, 2)
	assert.False(t, s.HasKind(bath.KindControlsReversed))
	assert.False(t, s.IsControlsReversed)
}

func TestElectricOffsetRefreshesAndClears(t *testing.T) {
	d := newTestDirector(5)
	s := blankState()
	d.SpawnKind(&s, bath.KindElectricLeakage)
	first := s.TemperatureOffset

	changed := false
	for i := 0; i < 20; i++ {
		d.Update(&s, 0.1)
		assert.LessOrEqual(t, s.TemperatureOffset, effects.ElectricOffsetRange)
		assert.GreaterOrEqual(t, s.TemperatureOffset, -effects.ElectricOffsetRange)
		if s.TemperatureOffset != first {
			changed = true
		}
	}
	assert.True(t, changed, "offset never refreshed")

	d.Update(&s, DefaultDuration)
	assert.False(t, s.HasKind(bath.KindElectricLeakage))
	assert.Equal(t, 0.0, s.TemperatureOffset)
}

func TestColdWindKeepsPuffBandAndResetsOnExpiry(t *testing.T) {
	d := newTestDirector(6)
	s := blankState()
	d.SpawnKind(&s, bath.KindColdWind)
	assert.Equal(t, rules.ColdWindDecayMultiplier, s.DecayMultiplier)

	for i := 0; i < 7*60; i++ {
		d.Update(&s, 1.0/60)
		require.GreaterOrEqual(t, len(s.WindField), effects.MinWindPuffs)
		require.LessOrEqual(t, len(s.WindField), effects.MaxWindPuffs)
	}

	d.Update(&s, 1.5)
	assert.False(t, s.HasKind(bath.KindColdWind))
	assert.Empty(t, s.WindField)
	assert.Equal(t, rules.NormalDecayMultiplier, s.DecayMultiplier)
}

func TestFallingObjectsOutliveTheirEvent(t *testing.T) {
	d := newTestDirector(7)
	s := blankState()
	d.SpawnKind(&s, bath.KindFallingItems)

	for s.HasKind(bath.KindFallingItems) {
		d.Update(&s, 0.05)
	}
	require.NotEmpty(t, s.FallingObjects, "expected objects still in flight")

	before := s.FallingObjects[0]
	d.Update(&s, 0.1)
	if len(s.FallingObjects) > 0 && s.FallingObjects[0].ID == before.ID {
		assert.Greater(t, s.FallingObjects[0].Y, before.Y)
	}

	for i := 0; i < 200; i++ {
		d.Update(&s, 0.05)
	}
	assert.Empty(t, s.FallingObjects)
}

func TestClearRunsDeactivationAndJournals(t *testing.T) {
	journal := events.NewEventLog(nil, 8)
	var d *Director
	record := func(s *bath.GameState, et events.EventType, payload map[string]any) {
		journal.Append(events.GameEvent{RunID: s.RunID, Type: et, Payload: payload})
	}
	d = NewDirector(rand.New(rand.NewPCG(8, 9)), logger.Nop(), record)
	s := blankState()
	d.SpawnKind(&s, bath.KindControlsReversed)
	d.SpawnKind(&s, bath.KindColdWind)

	n := d.Clear(&s, func(ev bath.InterferenceEvent) bool { return d.ClickClearable(ev.Kind) })

	assert.Equal(t, 1, n)
	assert.False(t, s.IsControlsReversed)
	assert.True(t, s.HasKind(bath.KindColdWind))
	assert.Len(t, journal.GetByType(events.EventTypeInterferenceStarted), 2)
	ended := journal.GetByType(events.EventTypeInterferenceEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "cleared", ended[0].Payload["reason"])
}

func TestRollIntervalWithinLevelRange(t *testing.T) {
	d := newTestDirector(10)
	for level := 0; level <= rules.MaxDifficultyLevel()+1; level++ {
		diff := rules.DifficultyFor(level)
		for i := 0; i < 100; i++ {
			v := d.RollInterval(level)
			require.GreaterOrEqual(t, v, diff.MinInterval)
			require.LessOrEqual(t, v, diff.MaxInterval)
		}
	}
}
