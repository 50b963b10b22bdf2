// Package soak runs headless seeded games and checks engine invariants on every frame.
package soak

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/ComfortBath/server/internal/domain/bath"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/rules"
	"github.com/MRamiBalles/ComfortBath/server/internal/engine"
	"github.com/MRamiBalles/ComfortBath/server/internal/events"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
)

const maxWindPuffs = 5

// Options configures a soak run.
type Options struct {
	Seeds      []uint64
	Duration   float64 // seconds of play per seed
	FrameHz    int
	NewPolicy  func() Policy // nil plays with the autopilot
	Concurrent int           // 0 uses GOMAXPROCS
}

// Result captures the outcome of one seeded game.
type Result struct {
	Seed       uint64
	RunID      string
	Status     bath.GameStatus
	Survived   float64
	PeakLevel  int
	Frames     int
	Spawned    int
	Violations []string
}

// Passed reports whether every invariant held.
func (r Result) Passed() bool {
	return len(r.Violations) == 0
}

// Run plays every seed and returns results in seed order.
func Run(ctx context.Context, opts Options, log *logger.Logger) ([]Result, error) {
	if log == nil {
		log = logger.Nop()
	}
	if opts.FrameHz <= 0 {
		opts.FrameHz = engine.DefaultTickHz
	}
	if opts.NewPolicy == nil {
		opts.NewPolicy = func() Policy { return NewAutopilot() }
	}
	limit := opts.Concurrent
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(opts.Seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, seed := range opts.Seeds {
		g.Go(func() error {
			res, err := playSeed(gctx, seed, opts)
			if err != nil {
				return err
			}
			results[i] = res
			log.Info("soak seed finished",
				"seed", seed, "status", res.Status, "survived", res.Survived,
				"level", res.PeakLevel, "violations", len(res.Violations))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func playSeed(ctx context.Context, seed uint64, opts Options) (Result, error) {
	journal := events.NewEventLog(nil, 1)
	eng := engine.NewSeededEngine(journal, nil, seed)
	policy := opts.NewPolicy()
	dt := 1 / float64(opts.FrameHz)

	s := eng.StartGame(eng.CreateInitialState())
	res := Result{Seed: seed, RunID: s.RunID, PeakLevel: s.DifficultyLevel}

	for s.GameStatus == bath.StatusPlaying && s.GameTimer < opts.Duration {
		if res.Frames%opts.FrameHz == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}

		switch policy.Decide(s, dt) {
		case PressUp:
			s = eng.ApplyTap(s, rules.TapUp)
		case PressDown:
			s = eng.ApplyTap(s, rules.TapDown)
		case PressCenter:
			s = eng.ApplyCenterAction(s)
		}

		prevTimer := s.GameTimer
		s = eng.Advance(s, dt)
		res.Frames++
		res.PeakLevel = max(res.PeakLevel, s.DifficultyLevel)

		for _, v := range checkFrame(s, prevTimer) {
			res.Violations = append(res.Violations, fmt.Sprintf("t=%.3f: %s", s.GameTimer, v))
		}
	}

	res.Status = s.GameStatus
	res.Survived = s.GameTimer
	res.Spawned = len(journal.GetByType(events.EventTypeInterferenceStarted))
	res.Violations = append(res.Violations, checkJournal(journal, s)...)
	return res, nil
}

// checkFrame verifies the per-frame invariants of the simulation core.
func checkFrame(s bath.GameState, prevTimer float64) []string {
	var out []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			out = append(out, fmt.Sprintf(format, args...))
		}
	}

	check(s.CurrentTemperature >= 0 && s.CurrentTemperature <= 1, "temperature %f out of range", s.CurrentTemperature)
	check(s.CurrentComfort >= 0 && s.CurrentComfort <= 1, "comfort %f out of range", s.CurrentComfort)
	check(s.DisplayedTemperature() >= 0 && s.DisplayedTemperature() <= 1, "displayed temperature out of range")
	check(s.TargetZone >= 0 && s.TargetZone < rules.ZoneCount, "zone %d out of range", s.TargetZone)
	check(s.DifficultyLevel >= 1 && s.DifficultyLevel <= rules.MaxDifficultyLevel(), "level %d out of range", s.DifficultyLevel)
	check(s.GameTimer >= prevTimer, "timer went backwards")

	limit := rules.DifficultyFor(s.DifficultyLevel).MaxConcurrent
	check(s.ActiveCount() <= limit, "%d active events over cap %d", s.ActiveCount(), limit)
	check(s.CountKind(bath.KindBubbleObstruction) <= 1, "more than one bubble obstruction")

	check(s.IsControlsReversed == s.HasKind(bath.KindControlsReversed), "reversed flag out of sync")
	check(s.TemperatureOffset == 0 || s.HasKind(bath.KindElectricLeakage), "offset without electric leakage")
	wantDecay := rules.NormalDecayMultiplier
	if s.HasKind(bath.KindColdWind) {
		wantDecay = rules.ColdWindDecayMultiplier
	}
	check(s.DecayMultiplier == wantDecay, "decay multiplier %f, want %f", s.DecayMultiplier, wantDecay)
	check(len(s.BubbleField) == 0 || s.HasKind(bath.KindBubbleObstruction), "bubbles without obstruction")
	check(len(s.WindField) == 0 || s.HasKind(bath.KindColdWind), "wind puffs without cold wind")
	check(len(s.WindField) <= maxWindPuffs, "%d wind puffs", len(s.WindField))

	for _, e := range s.InterferenceEvents {
		if e.Kind == bath.KindBubbleObstruction {
			check(e.Indefinite(), "bubble obstruction with a timeout")
		} else {
			check(e.RemainingTime > 0, "%s event %d lingers at %f", e.Kind, e.ID, e.RemainingTime)
		}
	}
	if s.GameStatus == bath.StatusFailure {
		check(s.GameTimer > rules.GracePeriod, "failed inside the grace period")
	}
	return out
}

// checkJournal verifies that the journal agrees with the final state.
func checkJournal(journal *events.EventLog, s bath.GameState) []string {
	var out []string
	run := journal.GetByRun(s.RunID)

	started, ended, failed := 0, 0, 0
	for _, e := range run {
		switch e.Type {
		case events.EventTypeInterferenceStarted:
			started++
		case events.EventTypeInterferenceEnded:
			ended++
		case events.EventTypeRunFailed:
			failed++
		}
	}
	if started-ended != s.ActiveCount() {
		out = append(out, fmt.Sprintf("journal has %d started and %d ended, state has %d active", started, ended, s.ActiveCount()))
	}
	wantFailed := 0
	if s.GameStatus == bath.StatusFailure {
		wantFailed = 1
	}
	if failed != wantFailed {
		out = append(out, fmt.Sprintf("journal has %d RUN_FAILED entries, want %d", failed, wantFailed))
	}
	return out
}
