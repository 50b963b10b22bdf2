// Package events provides the run journal: an append-only log of everything
// notable that happens during a comfort bath run.
package events

//go:generate go tool mockgen -source=eventlog.go -destination=mock_eventlog.go -package=events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a journal event.
type EventType string

const (
	EventTypeRunStarted          EventType = "RUN_STARTED"
	EventTypeRunFailed           EventType = "RUN_FAILED"
	EventTypeRunReset            EventType = "RUN_RESET"
	EventTypeZoneRotated         EventType = "ZONE_ROTATED"
	EventTypeDifficultyRaised    EventType = "DIFFICULTY_RAISED"
	EventTypeInterferenceStarted EventType = "INTERFERENCE_STARTED"
	EventTypeInterferenceEnded   EventType = "INTERFERENCE_ENDED"
	EventTypeBubblesCleared      EventType = "BUBBLES_CLEARED"
	EventTypeItemCaught          EventType = "ITEM_CAUGHT"
)

// GameEvent represents an immutable record of something that happened in a run.
type GameEvent struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	GameTimer float64        `json:"game_timer"` // play time at which it happened
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

var (
	// ErrQueueFull is reported through OnPersistError when the writer falls behind.
	ErrQueueFull = errors.New("journal persistence queue full")
	// ErrLogClosed is reported through OnPersistError for events appended after Close.
	ErrLogClosed = errors.New("journal closed")
)

// EventLog is the append-only journal.
// Without a persister it keeps the history in memory. With one, events are
// handed to a background writer and not retained, so appenders never block
// on I/O and a long-lived server does not accumulate the whole history.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
	pending   chan GameEvent
	onError   func(GameEvent, error)

	runMu     sync.Mutex
	running   bool
	closed    bool
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewEventLog creates a new event log with an optional persister.
// buffer sizes the queue between appenders and the persister.
func NewEventLog(persister EventPersister, buffer int) *EventLog {
	if buffer <= 0 {
		buffer = 1
	}
	el := &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	if persister != nil {
		el.pending = make(chan GameEvent, buffer)
	}
	return el
}

// OnPersistError registers a callback for failed or dropped writes. Must be called before Run.
func (el *EventLog) OnPersistError(fn func(GameEvent, error)) {
	el.onError = fn
}

// Append adds a new event to the log. Missing IDs and timestamps are filled in.
// Every event handed to a persisting log is either persisted or reported.
func (el *EventLog) Append(event GameEvent) GameEvent {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if el.pending == nil {
		el.mu.Lock()
		el.events = append(el.events, event)
		el.mu.Unlock()
		return event
	}

	// The send happens under runMu so Close cannot slip in between the
	// closed check and the enqueue.
	el.runMu.Lock()
	var err error
	if el.closed {
		err = ErrLogClosed
	} else {
		select {
		case el.pending <- event:
		default:
			err = ErrQueueFull
		}
	}
	el.runMu.Unlock()

	if err != nil {
		el.reportError(event, err)
	}
	return event
}

// Run writes queued events to the persister until Close is called or ctx ends.
// Events still queued at that point are flushed before Run returns.
func (el *EventLog) Run(ctx context.Context) error {
	el.runMu.Lock()
	if el.closed || el.running {
		el.runMu.Unlock()
		return nil
	}
	el.running = true
	el.runMu.Unlock()
	defer close(el.done)

	for {
		select {
		case <-ctx.Done():
			el.drain()
			return nil
		case <-el.stop:
			el.drain()
			return nil
		case event := <-el.pending:
			el.persist(event)
		}
	}
}

func (el *EventLog) drain() {
	for {
		select {
		case event := <-el.pending:
			el.persist(event)
		default:
			return
		}
	}
}

func (el *EventLog) persist(event GameEvent) {
	if err := el.persister.Append(event); err != nil {
		el.reportError(event, err)
	}
}

func (el *EventLog) reportError(event GameEvent, err error) {
	if el.onError != nil {
		el.onError(event, err)
	}
}

// Close stops persistence and flushes whatever is still queued.
// Events appended afterwards are reported with ErrLogClosed.
func (el *EventLog) Close() {
	el.runMu.Lock()
	el.closed = true
	running := el.running
	el.runMu.Unlock()

	el.closeOnce.Do(func() { close(el.stop) })

	if running {
		<-el.done
	}
	if el.pending != nil {
		el.drain()
	}
}

// GetByRun returns all events of a specific run. Only memory-backed logs
// keep history; a persisting log answers from its repository instead.
func (el *EventLog) GetByRun(runID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.RunID == runID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of a type across runs.
func (el *EventLog) GetByType(eventType EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full history.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return append([]GameEvent(nil), el.events...)
}

// Len returns the number of events held in memory.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
