package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/ComfortBath/server/internal/domain/bath"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/effects"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/rules"
	"github.com/MRamiBalles/ComfortBath/server/internal/events"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
)

// Sub-step intervals of Advance.
const (
	DecayInterval      = 40 * time.Millisecond
	ComfortInterval    = 80 * time.Millisecond
	MacroInterval      = time.Second
	ZoneInterval       = 15 * time.Second
	DifficultyInterval = 30 * time.Second
)

// MaxDelta is the longest slice of time Advance simulates at once. Longer
// deltas are played as several consecutive slices, so no time is lost.
const MaxDelta = 60.0

// InitialZone is the comfort band a run starts in.
const InitialZone = 1

// InitialComfort is the comfort a run starts with.
const InitialComfort = 0.5

// Engine is the orchestrator of one comfort bath run. It owns the sub-step
// accumulators and the interference director; the GameState itself is passed
// in and returned by value on every call.
//
// An Engine is not safe for concurrent use: a single driver owns it.
type Engine struct {
	journal  *events.EventLog
	logger   *logger.Logger
	rng      *rand.Rand
	director *Director

	decay      *Accumulator
	comfort    *Accumulator
	macro      *Accumulator
	zone       *Accumulator
	difficulty *Accumulator
}

// NewEngine creates an engine. journal may be nil; a nil rng is seeded from the clock.
func NewEngine(journal *events.EventLog, log *logger.Logger, rng *rand.Rand) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	e := &Engine{
		journal:    journal,
		logger:     log,
		rng:        rng,
		decay:      NewAccumulator(DecayInterval),
		comfort:    NewAccumulator(ComfortInterval),
		macro:      NewAccumulator(MacroInterval),
		zone:       NewAccumulator(ZoneInterval),
		difficulty: NewAccumulator(DifficultyInterval),
	}
	e.director = NewDirector(rng, log, e.record)
	return e
}

// NewSeededEngine creates an engine whose randomness is fully determined by seed.
func NewSeededEngine(journal *events.EventLog, log *logger.Logger, seed uint64) *Engine {
	return NewEngine(journal, log, rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)))
}

// Director exposes the interference director.
func (e *Engine) Director() *Director {
	return e.director
}

func (e *Engine) resetAccumulators() {
	e.decay.Reset()
	e.comfort.Reset()
	e.macro.Reset()
	e.zone.Reset()
	e.difficulty.Reset()
}

// record appends a journal entry for the run held in s.
func (e *Engine) record(s *bath.GameState, eventType events.EventType, payload map[string]any) {
	if e.journal == nil {
		return
	}
	e.journal.Append(events.GameEvent{
		RunID:     s.RunID,
		Type:      eventType,
		Payload:   payload,
		GameTimer: s.GameTimer,
	})
}

// CreateInitialState builds a fresh ready run and resets the accumulators.
func (e *Engine) CreateInitialState() bath.GameState {
	e.resetAccumulators()
	return bath.GameState{
		RunID:              uuid.NewString(),
		CurrentTemperature: rules.ZoneCenter(InitialZone),
		TargetZone:         InitialZone,
		CurrentComfort:     InitialComfort,
		GameStatus:         bath.StatusReady,
		DifficultyLevel:    1,
		InterferenceEvents: []bath.InterferenceEvent{},
		NextInterferenceIn: e.director.RollInterval(1),
		DecayMultiplier:    rules.NormalDecayMultiplier,
	}
}

// StartGame moves a ready run to playing.
func (e *Engine) StartGame(s bath.GameState) bath.GameState {
	if s.GameStatus != bath.StatusReady {
		e.logger.Warn("start ignored", "run", s.RunID, "status", s.GameStatus)
		return s
	}
	next := s.Clone()
	next.GameStatus = bath.StatusPlaying
	e.logger.Event("RUN_STARTED", next.RunID, fmt.Sprintf("zone %d, level %d", next.TargetZone, next.DifficultyLevel))
	e.record(&next, events.EventTypeRunStarted, map[string]any{
		"zone":  next.TargetZone,
		"level": next.DifficultyLevel,
	})
	return next
}

// ResetGame discards the current run and returns a fresh ready one.
func (e *Engine) ResetGame() bath.GameState {
	next := e.CreateInitialState()
	e.logger.Event("RUN_RESET", next.RunID, "new run ready")
	e.record(&next, events.EventTypeRunReset, nil)
	return next
}

// Advance runs one tick of dt seconds. It is a no-op unless the run is playing.
func (e *Engine) Advance(s bath.GameState, dt float64) bath.GameState {
	if s.GameStatus != bath.StatusPlaying {
		return s
	}
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		e.logger.Warn("invalid frame delta treated as zero", "run", s.RunID, "dt", dt)
		dt = 0
	}
	if dt > MaxDelta {
		e.logger.Debug("long frame delta split", "run", s.RunID, "dt", dt, "slice", MaxDelta)
	}

	next := s.Clone()
	for remaining := dt; ; remaining -= MaxDelta {
		e.step(&next, math.Min(remaining, MaxDelta))
		if remaining <= MaxDelta {
			break
		}
	}

	if next.CurrentComfort <= 0 {
		if next.GameTimer > rules.GracePeriod {
			next.CurrentComfort = 0
			next.GameStatus = bath.StatusFailure
			e.logger.Event("RUN_FAILED", next.RunID, fmt.Sprintf("survived %.2fs at level %d", next.GameTimer, next.DifficultyLevel))
			e.record(&next, events.EventTypeRunFailed, map[string]any{
				"score": next.GameTimer,
				"level": next.DifficultyLevel,
			})
			return next
		}
		next.CurrentComfort = rules.GraceComfort
	}

	return next
}

// step simulates one slice of at most MaxDelta seconds. Failure is resolved by
// Advance once every slice has run.
func (e *Engine) step(next *bath.GameState, dt float64) {
	d := secondsToDuration(dt)
	decaySteps := e.decay.Add(d)
	comfortSteps := e.comfort.Add(d)
	macroSteps := e.macro.Add(d)
	zoneSteps := e.zone.Add(d)

	next.GameTimer += dt
	next.NextInterferenceIn -= dt

	if next.ActiveCount() == 0 {
		for i := e.difficulty.Add(d); i > 0; i-- {
			e.raiseDifficulty(next)
		}
	}

	for i := 0; i < decaySteps; i++ {
		next.CurrentTemperature = rules.DecayTemperature(next.CurrentTemperature, next.DecayMultiplier)
	}

	for i := 0; i < zoneSteps; i++ {
		from := next.TargetZone
		next.TargetZone = rules.NextZone(from)
		e.logger.Event("ZONE_ROTATED", next.RunID, fmt.Sprintf("zone %d -> %d", from, next.TargetZone))
		e.record(next, events.EventTypeZoneRotated, map[string]any{"from": from, "to": next.TargetZone})
	}

	for i := 0; i < comfortSteps; i++ {
		inZone := rules.InComfortZone(next.CurrentTemperature, next.TargetZone)
		next.CurrentComfort = rules.ApplyComfortDelta(next.CurrentComfort, rules.ComfortStepDelta(inZone))
	}

	next.ElapsedSeconds += macroSteps

	e.director.Update(next, dt)

	if next.NextInterferenceIn <= 0 && next.ActiveCount() < rules.DifficultyFor(next.DifficultyLevel).MaxConcurrent {
		e.director.Spawn(next)
		next.NextInterferenceIn = e.director.RollInterval(next.DifficultyLevel)
	}
}

func (e *Engine) raiseDifficulty(s *bath.GameState) {
	from := s.DifficultyLevel
	s.DifficultyLevel = rules.RaiseDifficulty(from)
	s.NextInterferenceIn = e.director.RollInterval(s.DifficultyLevel)
	if s.DifficultyLevel == from {
		return
	}
	e.logger.Event("DIFFICULTY_RAISED", s.RunID, fmt.Sprintf("level %d -> %d", from, s.DifficultyLevel))
	e.record(s, events.EventTypeDifficultyRaised, map[string]any{"from": from, "to": s.DifficultyLevel})
}

// ApplyTempIncrease raises the temperature by one tap step.
func (e *Engine) ApplyTempIncrease(s bath.GameState) bath.GameState {
	return e.tap(s, rules.TapUp)
}

// ApplyTempDecrease lowers the temperature by one tap step.
func (e *Engine) ApplyTempDecrease(s bath.GameState) bath.GameState {
	return e.tap(s, rules.TapDown)
}

// ApplyTap handles a press of a physical button. While controls are reversed
// the up button cools and the down button heats.
func (e *Engine) ApplyTap(s bath.GameState, button rules.TapDirection) bath.GameState {
	if s.IsControlsReversed {
		button = -button
	}
	return e.tap(s, button)
}

func (e *Engine) tap(s bath.GameState, dir rules.TapDirection) bath.GameState {
	if s.GameStatus != bath.StatusPlaying {
		e.logger.Debug("tap ignored", "run", s.RunID, "status", s.GameStatus)
		return s
	}
	next := s.Clone()
	next.CurrentTemperature = rules.ApplyTap(next.CurrentTemperature, dir)
	next.TapRotation += rules.TapRotationDeg * float64(dir)
	next.TapAnimationCounter++
	return next
}

// ApplyCenterAction resolves interference: it pops bubbles first, otherwise
// catches falling items, otherwise clears click-clearable events.
func (e *Engine) ApplyCenterAction(s bath.GameState) bath.GameState {
	if s.GameStatus != bath.StatusPlaying {
		e.logger.Debug("center action ignored", "run", s.RunID, "status", s.GameStatus)
		return s
	}
	next := s.Clone()

	switch {
	case next.HasKind(bath.KindBubbleObstruction):
		n := e.director.Clear(&next, func(ev bath.InterferenceEvent) bool {
			return ev.Kind == bath.KindBubbleObstruction
		})
		next.CurrentComfort = rules.ApplyComfortDelta(next.CurrentComfort, rules.BubbleClearReward)
		next.NextInterferenceIn = e.director.RollInterval(next.DifficultyLevel)
		e.record(&next, events.EventTypeBubblesCleared, map[string]any{
			"events": n,
			"reward": rules.BubbleClearReward,
		})

	case next.HasKind(bath.KindFallingItems):
		e.catchFalling(&next)

	default:
		e.director.Clear(&next, func(ev bath.InterferenceEvent) bool {
			return e.director.ClickClearable(ev.Kind)
		})
	}
	return next
}

func (e *Engine) catchFalling(s *bath.GameState) {
	kept := s.FallingObjects[:0]
	for _, o := range s.FallingObjects {
		if !effects.InCatchBand(o) {
			kept = append(kept, o)
			continue
		}
		s.CurrentComfort = rules.ApplyComfortDelta(s.CurrentComfort, o.ComfortEffect)
		e.logger.Event("ITEM_CAUGHT", s.RunID, fmt.Sprintf("%s %+.2f", o.Kind, o.ComfortEffect))
		e.record(s, events.EventTypeItemCaught, map[string]any{
			"item":   string(o.Kind),
			"effect": o.ComfortEffect,
		})
	}
	s.FallingObjects = kept
}

// ForceInterference starts an event of a specific kind, as long as the level's
// concurrency cap and the single-bubble rule allow it.
func (e *Engine) ForceInterference(s bath.GameState, kind bath.InterferenceKind) bath.GameState {
	if s.GameStatus != bath.StatusPlaying {
		e.logger.Warn("forced interference ignored", "run", s.RunID, "status", s.GameStatus)
		return s
	}
	if s.ActiveCount() >= rules.DifficultyFor(s.DifficultyLevel).MaxConcurrent {
		e.logger.Warn("forced interference over cap", "run", s.RunID, "kind", kind)
		return s
	}
	if kind == bath.KindBubbleObstruction && s.HasKind(kind) {
		e.logger.Warn("bubble obstruction already active", "run", s.RunID)
		return s
	}
	if _, ok := e.director.kinds[kind]; !ok {
		e.logger.Warn("unknown interference kind", "run", s.RunID, "kind", kind)
		return s
	}
	next := s.Clone()
	e.director.SpawnKind(&next, kind)
	return next
}
