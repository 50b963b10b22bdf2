package engine

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/MRamiBalles/ComfortBath/server/internal/domain/bath"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/effects"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/rules"
	"github.com/MRamiBalles/ComfortBath/server/internal/events"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
)

// Interference durations in seconds.
const (
	ControlsReversedDuration = 5.0
	FallingItemsDuration     = 10.0
	DefaultDuration          = 8.0
)

// recordFunc journals a transition of the run held in s.
type recordFunc func(s *bath.GameState, eventType events.EventType, payload map[string]any)

// kindSpec is the lifecycle of one interference kind.
type kindSpec struct {
	duration       float64
	clickClearable bool
	activate       func(d *Director, s *bath.GameState)
	tick           func(d *Director, s *bath.GameState, dt float64)
	deactivate     func(d *Director, s *bath.GameState)
}

// Director generates interference events and owns their effect fields.
// It mutates the working copy handed to it by the Engine and never keeps state references.
type Director struct {
	rng    *rand.Rand
	logger *logger.Logger
	record recordFunc
	kinds  map[bath.InterferenceKind]kindSpec
}

// NewDirector creates the director with the full kind table.
func NewDirector(rng *rand.Rand, log *logger.Logger, record recordFunc) *Director {
	if record == nil {
		record = func(*bath.GameState, events.EventType, map[string]any) {}
	}
	d := &Director{
		rng:    rng,
		logger: log,
		record: record,
	}
	d.kinds = map[bath.InterferenceKind]kindSpec{
		bath.KindControlsReversed: {
			duration:       ControlsReversedDuration,
			clickClearable: true,
			activate:       (*Director).activateControlsReversed,
			deactivate:     (*Director).deactivateControlsReversed,
		},
		bath.KindElectricLeakage: {
			duration:       DefaultDuration,
			clickClearable: true,
			activate:       (*Director).activateElectric,
			tick:           (*Director).tickElectric,
			deactivate:     (*Director).deactivateElectric,
		},
		bath.KindBubbleObstruction: {
			duration:   math.Inf(1),
			activate:   (*Director).activateBubbles,
			tick:       (*Director).tickBubbles,
			deactivate: (*Director).deactivateBubbles,
		},
		bath.KindFallingItems: {
			duration:   FallingItemsDuration,
			activate:   (*Director).activateFalling,
			tick:       (*Director).tickFalling,
			deactivate: (*Director).deactivateFalling,
		},
		bath.KindColdWind: {
			duration:   DefaultDuration,
			activate:   (*Director).activateWind,
			tick:       (*Director).tickWind,
			deactivate: (*Director).deactivateWind,
		},
	}
	return d
}

// ClickClearable reports whether the generic center action ends events of this kind.
func (d *Director) ClickClearable(kind bath.InterferenceKind) bool {
	return d.kinds[kind].clickClearable
}

// Duration returns the lifetime of a freshly spawned event of this kind.
func (d *Director) Duration(kind bath.InterferenceKind) float64 {
	return d.kinds[kind].duration
}

// RollInterval picks the next spawn countdown from the level's interval range.
func (d *Director) RollInterval(level int) float64 {
	diff := rules.DifficultyFor(level)
	return effects.RandRange(d.rng, diff.MinInterval, diff.MaxInterval)
}

// PickRandomKind chooses uniformly among the kinds that may spawn now.
// bubble_obstruction is single-instance, so it is skipped while one is active.
func (d *Director) PickRandomKind(s *bath.GameState) bath.InterferenceKind {
	candidates := make([]bath.InterferenceKind, 0, len(d.kinds))
	for _, k := range bath.AllKinds() {
		if k == bath.KindBubbleObstruction && s.HasKind(k) {
			continue
		}
		candidates = append(candidates, k)
	}
	return candidates[d.rng.IntN(len(candidates))]
}

// Spawn starts one event of a random kind.
func (d *Director) Spawn(s *bath.GameState) bath.InterferenceEvent {
	return d.SpawnKind(s, d.PickRandomKind(s))
}

// SpawnKind starts one event of the given kind and runs its activation.
func (d *Director) SpawnKind(s *bath.GameState, kind bath.InterferenceKind) bath.InterferenceEvent {
	spec := d.kinds[kind]
	ev := bath.InterferenceEvent{
		ID:            s.NewID(),
		Kind:          kind,
		RemainingTime: spec.duration,
	}
	s.InterferenceEvents = append(s.InterferenceEvents, ev)
	spec.activate(d, s)

	d.logger.Event("INTERFERENCE_STARTED", s.RunID, fmt.Sprintf("%s (level %d)", kind, s.DifficultyLevel))
	d.record(s, events.EventTypeInterferenceStarted, map[string]any{
		"kind":     string(kind),
		"event_id": ev.ID,
		"level":    s.DifficultyLevel,
	})
	return ev
}

// Update runs one frame of every active effect, then counts down and retires events.
func (d *Director) Update(s *bath.GameState, dt float64) {
	// Objects finish their fall even after their event is gone.
	advanceFalling(s, dt)

	for _, k := range bath.AllKinds() {
		if !s.HasKind(k) {
			continue
		}
		if tick := d.kinds[k].tick; tick != nil {
			tick(d, s, dt)
		}
	}

	var expired []bath.InterferenceEvent
	kept := s.InterferenceEvents[:0]
	for _, ev := range s.InterferenceEvents {
		ev.RemainingTime -= dt
		if ev.RemainingTime <= 0 {
			expired = append(expired, ev)
			continue
		}
		kept = append(kept, ev)
	}
	s.InterferenceEvents = kept

	d.retire(s, expired, "expired")
}

// Clear removes every active event matching pred and runs the needed cleanups.
// It returns how many events were removed.
func (d *Director) Clear(s *bath.GameState, pred func(bath.InterferenceEvent) bool) int {
	var removed []bath.InterferenceEvent
	kept := s.InterferenceEvents[:0]
	for _, ev := range s.InterferenceEvents {
		if pred(ev) {
			removed = append(removed, ev)
			continue
		}
		kept = append(kept, ev)
	}
	s.InterferenceEvents = kept

	d.retire(s, removed, "cleared")
	return len(removed)
}

// retire journals the removed events and deactivates each kind left without events.
func (d *Director) retire(s *bath.GameState, removed []bath.InterferenceEvent, reason string) {
	if len(removed) == 0 {
		return
	}
	seen := make(map[bath.InterferenceKind]bool, len(removed))
	for _, ev := range removed {
		d.logger.Event("INTERFERENCE_ENDED", s.RunID, fmt.Sprintf("%s %s", ev.Kind, reason))
		d.record(s, events.EventTypeInterferenceEnded, map[string]any{
			"kind":     string(ev.Kind),
			"event_id": ev.ID,
			"reason":   reason,
		})
		if seen[ev.Kind] {
			continue
		}
		seen[ev.Kind] = true
		if ev.Kind == bath.KindBubbleObstruction || !s.HasKind(ev.Kind) {
			d.kinds[ev.Kind].deactivate(d, s)
		}
	}
}

// controls_reversed

func (d *Director) activateControlsReversed(s *bath.GameState) {
	s.IsControlsReversed = true
}

func (d *Director) deactivateControlsReversed(s *bath.GameState) {
	s.IsControlsReversed = false
}

// electric_leakage

func (d *Director) activateElectric(s *bath.GameState) {
	s.TemperatureOffset = effects.ElectricOffset(d.rng)
	s.ElectricRefreshIn = effects.ElectricRefreshPeriod
}

func (d *Director) tickElectric(s *bath.GameState, dt float64) {
	s.ElectricRefreshIn -= dt
	if s.ElectricRefreshIn > 0 {
		return
	}
	s.TemperatureOffset = effects.ElectricOffset(d.rng)
	s.ElectricRefreshIn += effects.ElectricRefreshPeriod
	if s.ElectricRefreshIn <= 0 {
		s.ElectricRefreshIn = effects.ElectricRefreshPeriod
	}
}

func (d *Director) deactivateElectric(s *bath.GameState) {
	s.TemperatureOffset = 0
	s.ElectricRefreshIn = 0
}

// bubble_obstruction

func (d *Director) activateBubbles(s *bath.GameState) {
	n := effects.MinBubbles + d.rng.IntN(effects.MaxBubbles-effects.MinBubbles+1)
	s.BubbleField = effects.PlaceBubbles(d.rng, n, s.NewID)
}

func (d *Director) tickBubbles(s *bath.GameState, dt float64) {
	for i := range s.BubbleField {
		s.BubbleField[i] = effects.StepBubble(s.BubbleField[i], dt, s.GameTimer, d.rng)
	}
}

func (d *Director) deactivateBubbles(s *bath.GameState) {
	s.BubbleField = nil
}

// falling_items

func (d *Director) activateFalling(s *bath.GameState) {
	// A second concurrent stream shares the running spawn timer.
	if s.CountKind(bath.KindFallingItems) == 1 {
		s.FallingSpawnIn = effects.FallingSpawnWait(d.rng)
	}
}

func (d *Director) tickFalling(s *bath.GameState, dt float64) {
	s.FallingSpawnIn -= dt
	for s.FallingSpawnIn <= 0 {
		s.FallingObjects = append(s.FallingObjects, effects.NewFallingObject(d.rng, s.NewID()))
		s.FallingSpawnIn += effects.FallingSpawnWait(d.rng)
	}
}

// Objects in flight are left alone.
func (d *Director) deactivateFalling(s *bath.GameState) {
	s.FallingSpawnIn = 0
}

func advanceFalling(s *bath.GameState, dt float64) {
	if len(s.FallingObjects) == 0 {
		return
	}
	kept := s.FallingObjects[:0]
	for _, o := range s.FallingObjects {
		o = effects.StepFalling(o, dt)
		if effects.OutOfField(o) {
			continue
		}
		kept = append(kept, o)
	}
	s.FallingObjects = kept
}

// cold_wind

func (d *Director) activateWind(s *bath.GameState) {
	s.DecayMultiplier = rules.ColdWindDecayMultiplier
	n := effects.MinInitialWind + d.rng.IntN(effects.MaxInitialWind-effects.MinInitialWind+1)
	for i := 0; i < n && len(s.WindField) < effects.MaxWindPuffs; i++ {
		s.WindField = append(s.WindField, effects.NewWindPuff(d.rng, s.NewID()))
	}
	s.WindSpawnIn = effects.WindSpawnWait(d.rng)
}

func (d *Director) tickWind(s *bath.GameState, dt float64) {
	kept := s.WindField[:0]
	for _, p := range s.WindField {
		p = effects.StepWind(p, dt)
		if effects.WindGone(p) {
			continue
		}
		kept = append(kept, p)
	}
	s.WindField = kept

	s.WindSpawnIn -= dt
	if s.WindSpawnIn <= 0 {
		if len(s.WindField) < effects.MaxWindPuffs {
			s.WindField = append(s.WindField, effects.NewWindPuff(d.rng, s.NewID()))
		}
		s.WindSpawnIn = effects.WindSpawnWait(d.rng)
	}
	for len(s.WindField) < effects.MinWindPuffs {
		s.WindField = append(s.WindField, effects.NewWindPuff(d.rng, s.NewID()))
	}
}

func (d *Director) deactivateWind(s *bath.GameState) {
	s.WindField = nil
	s.DecayMultiplier = rules.NormalDecayMultiplier
	s.WindSpawnIn = 0
}
