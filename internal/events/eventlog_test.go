package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAppendFillsIDAndTimestamp(t *testing.T) {
	el := NewEventLog(nil, 0)

	ev := el.Append(GameEvent{RunID: "run-1", Type: EventTypeRunStarted})

	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, 1, el.Len())
}

func TestQueriesFilterByRunAndType(t *testing.T) {
	el := NewEventLog(nil, 0)
	el.Append(GameEvent{RunID: "a", Type: EventTypeRunStarted})
	el.Append(GameEvent{RunID: "a", Type: EventTypeZoneRotated})
	el.Append(GameEvent{RunID: "b", Type: EventTypeRunStarted})

	assert.Len(t, el.GetByRun("a"), 2)
	assert.Len(t, el.GetByRun("b"), 1)
	assert.Len(t, el.GetByType(EventTypeRunStarted), 2)
	assert.Len(t, el.Replay(), 3)
}

func TestRunPersistsEveryEventBeforeClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	persister := NewMockEventPersister(ctrl)
	persister.EXPECT().Append(gomock.Any()).Return(nil).Times(3)

	el := NewEventLog(persister, 16)
	go func() { _ = el.Run(context.Background()) }()

	for i := 0; i < 3; i++ {
		el.Append(GameEvent{RunID: "run", Type: EventTypeZoneRotated})
	}
	el.Close()
}

func TestCloseWithoutRunStillFlushes(t *testing.T) {
	ctrl := gomock.NewController(t)
	persister := NewMockEventPersister(ctrl)
	persister.EXPECT().Append(gomock.Any()).Return(nil).Times(2)

	var late []error
	el := NewEventLog(persister, 16)
	el.OnPersistError(func(_ GameEvent, err error) { late = append(late, err) })
	el.Append(GameEvent{RunID: "run", Type: EventTypeRunStarted})
	el.Append(GameEvent{RunID: "run", Type: EventTypeRunFailed})
	el.Close()

	el.Append(GameEvent{RunID: "run", Type: EventTypeRunReset})
	require.Len(t, late, 1)
	assert.ErrorIs(t, late[0], ErrLogClosed)
	assert.Zero(t, el.Len())
}

func TestPersistErrorsAreReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	persister := NewMockEventPersister(ctrl)
	boom := errors.New("disk full")
	persister.EXPECT().Append(gomock.Any()).Return(boom)

	var (
		mu   sync.Mutex
		seen []error
	)
	el := NewEventLog(persister, 4)
	el.OnPersistError(func(_ GameEvent, err error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, err)
	})
	el.Append(GameEvent{RunID: "run", Type: EventTypeRunStarted})
	el.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.ErrorIs(t, seen[0], boom)
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	ctrl := gomock.NewController(t)
	persister := NewMockEventPersister(ctrl)
	persister.EXPECT().Append(gomock.Any()).Return(nil).Times(1)

	var dropped int
	el := NewEventLog(persister, 1)
	el.OnPersistError(func(_ GameEvent, err error) {
		if errors.Is(err, ErrQueueFull) {
			dropped++
		}
	})

	// No writer running: the second append finds the queue full.
	el.Append(GameEvent{RunID: "run", Type: EventTypeRunStarted})
	el.Append(GameEvent{RunID: "run", Type: EventTypeZoneRotated})
	el.Close()

	assert.Equal(t, 1, dropped)
}

type countingPersister struct {
	n atomic.Int64
}

func (p *countingPersister) Append(GameEvent) error {
	p.n.Add(1)
	return nil
}

func TestPersistingLogDoesNotRetainHistory(t *testing.T) {
	persister := &countingPersister{}
	el := NewEventLog(persister, 64)
	var dropped atomic.Int64
	el.OnPersistError(func(GameEvent, error) { dropped.Add(1) })
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = el.Run(context.Background())
	}()

	for i := 0; i < 100000; i++ {
		el.Append(GameEvent{RunID: "run", Type: EventTypeZoneRotated})
	}
	el.Close()
	<-done

	assert.Zero(t, el.Len())
	assert.Empty(t, el.Replay())
	assert.Equal(t, int64(100000), persister.n.Load()+dropped.Load())
}

func TestConcurrentAppendAndCloseLosesNothing(t *testing.T) {
	for round := 0; round < 50; round++ {
		persister := &countingPersister{}
		el := NewEventLog(persister, 8)
		var reported atomic.Int64
		el.OnPersistError(func(GameEvent, error) { reported.Add(1) })

		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = el.Run(ctx) }()

		const writers, perWriter = 4, 200
		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					el.Append(GameEvent{RunID: "run", Type: EventTypeItemCaught})
				}
			}()
		}
		el.Close()
		wg.Wait()
		cancel()

		require.Equal(t, int64(writers*perWriter), persister.n.Load()+reported.Load(),
			"round %d: every event is persisted or reported", round)
	}
}
