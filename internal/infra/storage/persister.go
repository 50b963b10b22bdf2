package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/MRamiBalles/ComfortBath/server/internal/events"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/metrics"
)

// JournalPersister translates journal events to storage events.
// It satisfies events.EventPersister.
type JournalPersister struct {
	repo    EventRepository
	metrics *metrics.Collector
	timeout time.Duration
}

// NewJournalPersister wraps repo. m may be nil.
func NewJournalPersister(repo EventRepository, m *metrics.Collector) *JournalPersister {
	if m == nil {
		m = metrics.New()
	}
	return &JournalPersister{repo: repo, metrics: m, timeout: 5 * time.Second}
}

func (p *JournalPersister) Append(event events.GameEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	err := p.repo.Append(ctx, GameEvent{
		ID:        event.ID,
		RunID:     event.RunID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		Payload:   event.Payload,
		GameTimer: event.GameTimer,
	})
	p.metrics.RecordEventWrite(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to persist %s for run %s: %w", event.Type, event.RunID, err)
	}
	return nil
}
