package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/ComfortBath/server/internal/events"
	"github.com/MRamiBalles/ComfortBath/server/internal/infra/storage"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
)

func seededJournalMux(t *testing.T) *http.ServeMux {
	t.Helper()
	ctx := context.Background()
	repo := storage.NewMemoryEventRepository()
	now := time.Now()
	add := func(id string, typ events.EventType, timer float64, payload map[string]any) {
		require.NoError(t, repo.Append(ctx, storage.GameEvent{
			ID:        id,
			RunID:     "run-1",
			Timestamp: now.Add(time.Duration(timer * float64(time.Second))),
			EventType: string(typ),
			Payload:   payload,
			GameTimer: timer,
		}))
	}
	add("e1", events.EventTypeRunStarted, 0, map[string]any{"zone": 1.0, "level": 1.0})
	add("e2", events.EventTypeZoneRotated, 15, map[string]any{"from": 1.0, "to": 2.0})
	add("e3", events.EventTypeRunFailed, 21.5, map[string]any{"score": 21.5, "level": 1.0})

	mux := http.NewServeMux()
	NewJournalHandler(repo, logger.Nop()).RegisterRoutes(mux)
	return mux
}

func get(t *testing.T, mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestJournalEvents(t *testing.T) {
	mux := seededJournalMux(t)

	rec := get(t, mux, "/api/runs/run-1/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp EventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, 3, resp.TotalEvents)
	assert.Equal(t, "RUN_STARTED", resp.Events[0].EventType)
}

func TestJournalEventsFilteredByType(t *testing.T) {
	mux := seededJournalMux(t)

	rec := get(t, mux, "/api/runs/run-1/events?type=ZONE_ROTATED")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalEvents)
	assert.Equal(t, "ZONE_ROTATED", resp.FilteredBy)
}

func TestJournalUnknownRun(t *testing.T) {
	mux := seededJournalMux(t)

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/api/runs/nope/events").Code)
	assert.Equal(t, http.StatusNotFound, get(t, mux, "/api/runs/nope/recap").Code)
}

func TestJournalRecap(t *testing.T) {
	mux := seededJournalMux(t)

	rec := get(t, mux, "/api/runs/run-1/recap")
	require.Equal(t, http.StatusOK, rec.Code)

	var recap storage.Recap
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recap))
	assert.Equal(t, "failure", recap.Status)
	assert.InDelta(t, 21.5, recap.SurvivedSeconds, 1e-9)
	assert.Equal(t, 1, recap.ZoneRotations)
	assert.Len(t, recap.Timeline, 3)
}

func TestJournalListRuns(t *testing.T) {
	mux := seededJournalMux(t)

	rec := get(t, mux, "/api/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Runs []storage.RunSummary `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 1)
	assert.Equal(t, 3, resp.Runs[0].Events)

	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/runs?limit=zero").Code)
}

func TestJournalRejectsOtherMethods(t *testing.T) {
	mux := seededJournalMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs/run-1/events", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
