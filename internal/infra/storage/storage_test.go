package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ComfortBath/server/internal/events"
)

func newTestRepo(t *testing.T) *SQLiteEventRepository {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "journal", "bath.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteEventRepository(db)
}

func appendAll(t *testing.T, repo *SQLiteEventRepository, evs ...GameEvent) {
	t.Helper()
	base := time.Unix(1_700_000_000, 0)
	for i, e := range evs {
		if e.ID == "" {
			e.ID = events.GenerateEventID()
		}
		e.Timestamp = base.Add(time.Duration(i) * time.Millisecond)
		require.NoError(t, repo.Append(context.Background(), e))
	}
}

func TestAppendAndGetByRunIDKeepsOrder(t *testing.T) {
	repo := newTestRepo(t)
	appendAll(t, repo,
		GameEvent{RunID: "a", EventType: string(events.EventTypeRunStarted), Payload: map[string]any{"level": 1}},
		GameEvent{RunID: "b", EventType: string(events.EventTypeRunStarted)},
		GameEvent{RunID: "a", EventType: string(events.EventTypeZoneRotated), Payload: map[string]any{"to": 2}, GameTimer: 15},
	)

	got, err := repo.GetByRunID(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, string(events.EventTypeRunStarted), got[0].EventType)
	assert.Equal(t, 1.0, got[0].Payload["level"])
	assert.Equal(t, 15.0, got[1].GameTimer)
	assert.True(t, got[0].Timestamp.Before(got[1].Timestamp))
}

func TestGetByEventType(t *testing.T) {
	repo := newTestRepo(t)
	appendAll(t, repo,
		GameEvent{RunID: "a", EventType: "ITEM_CAUGHT"},
		GameEvent{RunID: "a", EventType: "ZONE_ROTATED"},
		GameEvent{RunID: "a", EventType: "ITEM_CAUGHT"},
	)

	got, err := repo.GetByEventType(context.Background(), "a", "ITEM_CAUGHT")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDuplicateIDIsRejected(t *testing.T) {
	repo := newTestRepo(t)
	e := GameEvent{ID: "dup", RunID: "a", EventType: "RUN_STARTED", Timestamp: time.Now()}
	require.NoError(t, repo.Append(context.Background(), e))

	assert.Error(t, repo.Append(context.Background(), e))
}

func TestListRunsMostRecentFirst(t *testing.T) {
	repo := newTestRepo(t)
	appendAll(t, repo,
		GameEvent{RunID: "old", EventType: "RUN_STARTED"},
		GameEvent{RunID: "new", EventType: "RUN_STARTED"},
		GameEvent{RunID: "new", EventType: "RUN_FAILED"},
	)

	runs, err := repo.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].RunID)
	assert.Equal(t, 2, runs[0].Events)
	assert.Equal(t, "old", runs[1].RunID)
}

func TestBuildRecap(t *testing.T) {
	repo := newTestRepo(t)
	appendAll(t, repo,
		GameEvent{RunID: "r", EventType: string(events.EventTypeRunStarted)},
		GameEvent{RunID: "r", EventType: string(events.EventTypeInterferenceStarted), Payload: map[string]any{"kind": "falling_items"}, GameTimer: 9},
		GameEvent{RunID: "r", EventType: string(events.EventTypeItemCaught), Payload: map[string]any{"item": "rubber_duck", "effect": 0.08}, GameTimer: 13},
		GameEvent{RunID: "r", EventType: string(events.EventTypeItemCaught), Payload: map[string]any{"item": "ice_cube", "effect": -0.1}, GameTimer: 14},
		GameEvent{RunID: "r", EventType: string(events.EventTypeZoneRotated), Payload: map[string]any{"from": 1, "to": 2}, GameTimer: 15},
		GameEvent{RunID: "r", EventType: string(events.EventTypeInterferenceStarted), Payload: map[string]any{"kind": "bubble_obstruction"}, GameTimer: 25},
		GameEvent{RunID: "r", EventType: string(events.EventTypeBubblesCleared), GameTimer: 26},
		GameEvent{RunID: "r", EventType: string(events.EventTypeDifficultyRaised), Payload: map[string]any{"from": 1, "to": 2}, GameTimer: 56},
		GameEvent{RunID: "r", EventType: string(events.EventTypeRunFailed), Payload: map[string]any{"score": 61.5}, GameTimer: 61.5},
	)

	recap, err := NewReconstructor(repo).BuildRecap(context.Background(), "r")
	require.NoError(t, err)

	assert.Equal(t, "failure", recap.Status)
	assert.Equal(t, 61.5, recap.SurvivedSeconds)
	assert.Equal(t, 2, recap.PeakDifficulty)
	assert.Equal(t, map[string]int{"falling_items": 1, "bubble_obstruction": 1}, recap.Interferences)
	assert.Equal(t, 2, recap.ItemsCaught)
	assert.InDelta(t, -0.02, recap.ComfortFromItems, 1e-9)
	assert.Equal(t, 1, recap.BubblesCleared)
	assert.Equal(t, 1, recap.ZoneRotations)
	require.Len(t, recap.Timeline, 9)
	assert.Equal(t, "NEGATIVE", recap.Timeline[3].Impact)
	assert.Contains(t, recap.Timeline[2].Summary, "rubber_duck")
}

func TestBuildRecapUnknownRun(t *testing.T) {
	repo := newTestRepo(t)

	_, err := NewReconstructor(repo).BuildRecap(context.Background(), "missing")

	assert.True(t, errors.Is(err, ErrNotFound))
}
