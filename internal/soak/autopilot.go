package soak

import (
	"math"

	"github.com/MRamiBalles/ComfortBath/server/internal/domain/bath"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/effects"
	"github.com/MRamiBalles/ComfortBath/server/internal/domain/rules"
)

// Press is one input decided by a policy.
type Press int

const (
	PressNone Press = iota
	PressUp
	PressDown
	PressCenter
)

// Policy decides what to press on each frame.
type Policy interface {
	Decide(s bath.GameState, dt float64) Press
}

// Idle never presses anything.
type Idle struct{}

func (Idle) Decide(bath.GameState, float64) Press { return PressNone }

// Autopilot plays like an attentive human: it reads the displayed temperature,
// reacts to interference, and presses at most once per Reaction seconds.
type Autopilot struct {
	Reaction float64

	cooldown float64
}

// NewAutopilot returns an autopilot pressing at most ten times per second.
func NewAutopilot() *Autopilot {
	return &Autopilot{Reaction: 0.1}
}

func (a *Autopilot) Decide(s bath.GameState, dt float64) Press {
	a.cooldown -= dt
	if a.cooldown > 0 {
		return PressNone
	}
	p := a.choose(s)
	if p != PressNone {
		a.cooldown = a.Reaction
	}
	return p
}

func (a *Autopilot) choose(s bath.GameState) Press {
	if s.HasKind(bath.KindBubbleObstruction) {
		return PressCenter
	}
	for _, o := range s.FallingObjects {
		if effects.InCatchBand(o) && o.ComfortEffect > 0 {
			return PressCenter
		}
	}
	if !s.HasKind(bath.KindFallingItems) &&
		(s.HasKind(bath.KindControlsReversed) || s.HasKind(bath.KindElectricLeakage)) {
		return PressCenter
	}

	diff := rules.ZoneCenter(s.TargetZone) - s.DisplayedTemperature()
	if math.Abs(diff) <= rules.TapStep/2 {
		return PressNone
	}
	heat := diff > 0
	if s.IsControlsReversed {
		heat = !heat
	}
	if heat {
		return PressUp
	}
	return PressDown
}
