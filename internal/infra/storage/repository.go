// Package storage provides the persistence layer for the run journal.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a run has no journal entries.
var ErrNotFound = errors.New("not found")

// GameEvent mirrors the journal event structure for persistence.
// The domain packages do NOT import this; cmd wires an adapter.
type GameEvent struct {
	ID        string         `json:"id" db:"id"`
	RunID     string         `json:"run_id" db:"run_id"`
	Timestamp time.Time      `json:"timestamp" db:"timestamp"`
	EventType string         `json:"event_type" db:"event_type"`
	Payload   map[string]any `json:"payload" db:"payload"`
	GameTimer float64        `json:"game_timer" db:"game_timer"`
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	FirstEvent time.Time `json:"first_event"`
	LastEvent  time.Time `json:"last_event"`
	Events     int       `json:"events"`
}

// EventRepository defines the interface for journal persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetByRunID retrieves all events of a run in insertion order.
	GetByRunID(ctx context.Context, runID string) ([]GameEvent, error)

	// GetByEventType retrieves all events of a specific type within a run.
	GetByEventType(ctx context.Context, runID string, eventType string) ([]GameEvent, error)

	// ListRuns returns the most recently active runs first.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}
