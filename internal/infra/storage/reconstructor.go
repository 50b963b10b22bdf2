// Package storage - reconstructor.go
// Run recap: folds a run's journal into a summary. state = f(events).
package storage

import (
	"context"
	"fmt"

	"github.com/MRamiBalles/ComfortBath/server/internal/events"
)

// Reconstructor rebuilds run summaries from the journal.
// Used for post-run diagnostics and auditing, not for scoring.
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new run reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// RecapEvent is a simplified journal entry for the recap timeline.
type RecapEvent struct {
	GameTimer float64 `json:"game_timer"`
	EventType string  `json:"event_type"`
	Summary   string  `json:"summary"` // Human-readable description
	Impact    string  `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// Recap is the folded view of one run.
type Recap struct {
	RunID            string         `json:"run_id"`
	Status           string         `json:"status"`
	SurvivedSeconds  float64        `json:"survived_seconds"`
	PeakDifficulty   int            `json:"peak_difficulty"`
	Interferences    map[string]int `json:"interferences"`
	ItemsCaught      int            `json:"items_caught"`
	ComfortFromItems float64        `json:"comfort_from_items"`
	BubblesCleared   int            `json:"bubbles_cleared"`
	ZoneRotations    int            `json:"zone_rotations"`
	Timeline         []RecapEvent   `json:"timeline"`
}

// BuildRecap folds every journal entry of runID. It returns ErrNotFound for unknown runs.
func (r *Reconstructor) BuildRecap(ctx context.Context, runID string) (*Recap, error) {
	evs, err := r.eventRepo.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for run %s: %w", runID, err)
	}
	if len(evs) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}

	recap := &Recap{
		RunID:          runID,
		Status:         "ready",
		PeakDifficulty: 1,
		Interferences:  make(map[string]int),
		Timeline:       make([]RecapEvent, 0, len(evs)),
	}
	for _, e := range evs {
		r.applyEvent(recap, e)
		recap.Timeline = append(recap.Timeline, RecapEvent{
			GameTimer: e.GameTimer,
			EventType: e.EventType,
			Summary:   r.summarizeEvent(e),
			Impact:    r.determineImpact(e),
		})
	}
	return recap, nil
}

// applyEvent folds one entry into the recap.
func (r *Reconstructor) applyEvent(recap *Recap, e GameEvent) {
	if e.GameTimer > recap.SurvivedSeconds {
		recap.SurvivedSeconds = e.GameTimer
	}

	switch events.EventType(e.EventType) {
	case events.EventTypeRunStarted:
		recap.Status = "playing"
	case events.EventTypeRunFailed:
		recap.Status = "failure"
		if score, ok := payloadFloat(e.Payload, "score"); ok {
			recap.SurvivedSeconds = score
		}
	case events.EventTypeDifficultyRaised:
		if to, ok := payloadFloat(e.Payload, "to"); ok && int(to) > recap.PeakDifficulty {
			recap.PeakDifficulty = int(to)
		}
	case events.EventTypeInterferenceStarted:
		recap.Interferences[payloadString(e.Payload, "kind")]++
	case events.EventTypeItemCaught:
		recap.ItemsCaught++
		if eff, ok := payloadFloat(e.Payload, "effect"); ok {
			recap.ComfortFromItems += eff
		}
	case events.EventTypeBubblesCleared:
		recap.BubblesCleared++
	case events.EventTypeZoneRotated:
		recap.ZoneRotations++
	}
}

// summarizeEvent creates a human-readable summary.
func (r *Reconstructor) summarizeEvent(e GameEvent) string {
	switch events.EventType(e.EventType) {
	case events.EventTypeRunStarted:
		return "The bath started."
	case events.EventTypeRunFailed:
		return "Comfort ran out."
	case events.EventTypeRunReset:
		return "The bath was reset."
	case events.EventTypeZoneRotated:
		to, _ := payloadFloat(e.Payload, "to")
		return fmt.Sprintf("The comfort zone moved to band %d.", int(to))
	case events.EventTypeDifficultyRaised:
		to, _ := payloadFloat(e.Payload, "to")
		return fmt.Sprintf("Difficulty rose to level %d.", int(to))
	case events.EventTypeInterferenceStarted:
		return fmt.Sprintf("Interference began: %s.", payloadString(e.Payload, "kind"))
	case events.EventTypeInterferenceEnded:
		return fmt.Sprintf("Interference %s: %s.", payloadString(e.Payload, "reason"), payloadString(e.Payload, "kind"))
	case events.EventTypeBubblesCleared:
		return "Bubbles popped."
	case events.EventTypeItemCaught:
		eff, _ := payloadFloat(e.Payload, "effect")
		return fmt.Sprintf("Caught a %s (%+.2f comfort).", payloadString(e.Payload, "item"), eff)
	default:
		return "Something happened in the bath."
	}
}

// determineImpact classifies the event impact.
func (r *Reconstructor) determineImpact(e GameEvent) string {
	switch events.EventType(e.EventType) {
	case events.EventTypeRunFailed, events.EventTypeInterferenceStarted, events.EventTypeDifficultyRaised:
		return "NEGATIVE"
	case events.EventTypeBubblesCleared, events.EventTypeInterferenceEnded:
		return "POSITIVE"
	case events.EventTypeItemCaught:
		if eff, ok := payloadFloat(e.Payload, "effect"); ok && eff < 0 {
			return "NEGATIVE"
		}
		return "POSITIVE"
	default:
		return "NEUTRAL"
	}
}

// payloadFloat reads a number that may have gone through a JSON round trip.
func payloadFloat(p map[string]any, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func payloadString(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}
