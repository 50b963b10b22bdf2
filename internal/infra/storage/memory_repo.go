package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryEventRepository keeps the journal in process memory.
// Used when no database path is configured, and in tests.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events []GameEvent
	ids    map[string]bool
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{ids: make(map[string]bool)}
}

func (r *MemoryEventRepository) Append(ctx context.Context, event GameEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ids[event.ID] {
		return fmt.Errorf("failed to append event %s: duplicate id", event.ID)
	}
	r.ids[event.ID] = true
	r.events = append(r.events, event)
	return nil
}

func (r *MemoryEventRepository) filter(keep func(GameEvent) bool) []GameEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []GameEvent
	for _, e := range r.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (r *MemoryEventRepository) GetByRunID(ctx context.Context, runID string) ([]GameEvent, error) {
	return r.filter(func(e GameEvent) bool { return e.RunID == runID }), nil
}

func (r *MemoryEventRepository) GetByEventType(ctx context.Context, runID string, eventType string) ([]GameEvent, error) {
	return r.filter(func(e GameEvent) bool { return e.RunID == runID && e.EventType == eventType }), nil
}

func (r *MemoryEventRepository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Walk backwards so the most recently active run comes first.
	index := make(map[string]int)
	var runs []RunSummary
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		pos, ok := index[e.RunID]
		if !ok {
			index[e.RunID] = len(runs)
			runs = append(runs, RunSummary{RunID: e.RunID, FirstEvent: e.Timestamp, LastEvent: e.Timestamp})
			pos = len(runs) - 1
		}
		s := &runs[pos]
		s.Events++
		if e.Timestamp.Before(s.FirstEvent) {
			s.FirstEvent = e.Timestamp
		}
		if e.Timestamp.After(s.LastEvent) {
			s.LastEvent = e.Timestamp
		}
	}
	if len(runs) > limit {
		runs = slices.Clip(runs[:limit])
	}
	return runs, nil
}
