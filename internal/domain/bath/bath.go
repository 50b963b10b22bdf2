// Package bath defines the core domain entities of a comfort bath run.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package bath

import (
	"encoding/json"
	"math"
	"slices"
)

// GameStatus drives the top-level state machine of a run.
type GameStatus string

const (
	StatusReady   GameStatus = "ready"
	StatusPlaying GameStatus = "playing"
	StatusSuccess GameStatus = "success" // Reserved, no transition reaches it
	StatusFailure GameStatus = "failure"
)

// InterferenceKind identifies one of the five interference effects.
type InterferenceKind string

const (
	KindControlsReversed  InterferenceKind = "controls_reversed"
	KindElectricLeakage   InterferenceKind = "electric_leakage"
	KindBubbleObstruction InterferenceKind = "bubble_obstruction"
	KindFallingItems      InterferenceKind = "falling_items"
	KindColdWind          InterferenceKind = "cold_wind"
)

// AllKinds returns every interference kind in a fixed order.
func AllKinds() []InterferenceKind {
	return []InterferenceKind{
		KindControlsReversed,
		KindElectricLeakage,
		KindBubbleObstruction,
		KindFallingItems,
		KindColdWind,
	}
}

// InterferenceEvent is one active perturbation.
// RemainingTime is +Inf for events that only end through a player action.
type InterferenceEvent struct {
	ID            int              `json:"id"`
	Kind          InterferenceKind `json:"kind"`
	RemainingTime float64          `json:"remaining_time"`
}

// Indefinite reports whether the event never times out.
func (e InterferenceEvent) Indefinite() bool {
	return math.IsInf(e.RemainingTime, 1)
}

// MarshalJSON encodes an indefinite remaining time as null.
func (e InterferenceEvent) MarshalJSON() ([]byte, error) {
	var remaining *float64
	if !e.Indefinite() {
		r := e.RemainingTime
		remaining = &r
	}
	return json.Marshal(struct {
		ID            int              `json:"id"`
		Kind          InterferenceKind `json:"kind"`
		RemainingTime *float64         `json:"remaining_time"`
	}{e.ID, e.Kind, remaining})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *InterferenceEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            int              `json:"id"`
		Kind          InterferenceKind `json:"kind"`
		RemainingTime *float64         `json:"remaining_time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.ID = raw.ID
	e.Kind = raw.Kind
	e.RemainingTime = math.Inf(1)
	if raw.RemainingTime != nil {
		e.RemainingTime = *raw.RemainingTime
	}
	return nil
}

// Bubble is a drifting obstruction particle. Coordinates are normalised to the playfield.
type Bubble struct {
	ID            int     `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Size          float64 `json:"size"`
	Opacity       float64 `json:"opacity"`
	FallSpeed     float64 `json:"fall_speed"`
	DriftSpeed    float64 `json:"drift_speed"`
	SwayAmplitude float64 `json:"sway_amplitude"`
	SwayFrequency float64 `json:"sway_frequency"`
	Phase         float64 `json:"phase"`
}

// FallingItemKind is the type of a collectible dropped by falling_items.
type FallingItemKind string

const (
	ItemRubberDuck FallingItemKind = "rubber_duck"
	ItemBathBomb   FallingItemKind = "bath_bomb"
	ItemSponge     FallingItemKind = "sponge"
	ItemAlarmClock FallingItemKind = "alarm_clock"
	ItemIceCube    FallingItemKind = "ice_cube"
)

// FallingObject is a collectible falling through the playfield.
type FallingObject struct {
	ID            int             `json:"id"`
	Kind          FallingItemKind `json:"kind"`
	X             float64         `json:"x"`
	Y             float64         `json:"y"`
	ComfortEffect float64         `json:"comfort_effect"`
}

// WindDirection is the travel direction of a wind puff.
type WindDirection string

const (
	WindLeft  WindDirection = "left"
	WindRight WindDirection = "right"
)

// WindPuff is a cosmetic gust crossing the playfield while cold_wind is active.
type WindPuff struct {
	ID        int           `json:"id"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Direction WindDirection `json:"direction"`
	Speed     float64       `json:"speed"`
	Opacity   float64       `json:"opacity"`
}

// GameState is the authoritative aggregate of one run.
// It is replaced wholesale by every engine operation and never shared.
type GameState struct {
	RunID string `json:"run_id"`

	// Core meters
	CurrentTemperature float64    `json:"current_temperature"` // 0-1
	TargetZone         int        `json:"target_zone"`         // 0-3 quartile index
	CurrentComfort     float64    `json:"current_comfort"`     // 0-1
	GameTimer          float64    `json:"game_timer"`          // seconds of play
	ElapsedSeconds     int        `json:"elapsed_seconds"`     // whole seconds, macro step
	GameStatus         GameStatus `json:"game_status"`
	DifficultyLevel    int        `json:"difficulty_level"`

	// Interference
	InterferenceEvents []InterferenceEvent `json:"interference_events"`
	NextInterferenceIn float64             `json:"next_interference_in"`
	IsControlsReversed bool                `json:"is_controls_reversed"`
	TemperatureOffset  float64             `json:"temperature_offset"`
	DecayMultiplier    float64             `json:"decay_multiplier"`

	// Effect sub-entities
	BubbleField    []Bubble        `json:"bubble_field"`
	FallingObjects []FallingObject `json:"falling_objects"`
	WindField      []WindPuff      `json:"wind_field"`

	// Effect timers
	ElectricRefreshIn float64 `json:"-"`
	FallingSpawnIn    float64 `json:"-"`
	WindSpawnIn       float64 `json:"-"`
	NextEntityID      int     `json:"-"`

	// Presentation hints
	TapRotation         float64 `json:"tap_rotation"`
	TapAnimationCounter int     `json:"tap_animation_counter"`
}

// Clone returns a deep copy of the state.
func (s GameState) Clone() GameState {
	c := s
	c.InterferenceEvents = slices.Clone(s.InterferenceEvents)
	c.BubbleField = slices.Clone(s.BubbleField)
	c.FallingObjects = slices.Clone(s.FallingObjects)
	c.WindField = slices.Clone(s.WindField)
	return c
}

// NewID hands out the next sub-entity identifier.
func (s *GameState) NewID() int {
	s.NextEntityID++
	return s.NextEntityID
}

// HasKind reports whether at least one event of the kind is active.
func (s *GameState) HasKind(kind InterferenceKind) bool {
	return s.CountKind(kind) > 0
}

// CountKind returns the number of active events of the kind.
func (s *GameState) CountKind(kind InterferenceKind) int {
	n := 0
	for _, e := range s.InterferenceEvents {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// ActiveCount returns the number of active interference events.
func (s *GameState) ActiveCount() int {
	return len(s.InterferenceEvents)
}

// DisplayedTemperature is what the player sees: the real temperature plus the electric jitter.
func (s *GameState) DisplayedTemperature() float64 {
	return math.Max(0, math.Min(1, s.CurrentTemperature+s.TemperatureOffset))
}
