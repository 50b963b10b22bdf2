package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/ComfortBath/server/internal/infra/storage"
	"github.com/MRamiBalles/ComfortBath/server/internal/platform/logger"
)

// JournalHandler serves the persisted run journal for diagnostics.
type JournalHandler struct {
	repo   storage.EventRepository
	recon  *storage.Reconstructor
	logger *logger.Logger
}

// NewJournalHandler creates a journal handler on top of a repository.
func NewJournalHandler(repo storage.EventRepository, log *logger.Logger) *JournalHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &JournalHandler{
		repo:   repo,
		recon:  storage.NewReconstructor(repo),
		logger: log,
	}
}

// EventsResponse is the API response for a run's journal.
type EventsResponse struct {
	RunID       string              `json:"run_id"`
	TotalEvents int                 `json:"total_events"`
	FilteredBy  string              `json:"filtered_by,omitempty"`
	GeneratedAt string              `json:"generated_at"`
	Events      []storage.GameEvent `json:"events"`
}

// HandleListRuns returns the most recently active runs.
// GET /api/runs?limit=N
func (jh *JournalHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			jh.jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := jh.repo.ListRuns(r.Context(), limit)
	if err != nil {
		jh.logger.Error("failed to list runs", "error", err)
		jh.jsonError(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []storage.RunSummary{}
	}
	jh.writeJSON(w, map[string]any{
		"generated_at": time.Now().Format(time.RFC3339),
		"runs":         runs,
	})
}

// HandleEvents returns the journal of one run.
// GET /api/runs/{id}/events?type=ZONE_ROTATED
func (jh *JournalHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	eventType := r.URL.Query().Get("type")

	var (
		list []storage.GameEvent
		err  error
	)
	if eventType != "" {
		list, err = jh.repo.GetByEventType(r.Context(), runID, eventType)
	} else {
		list, err = jh.repo.GetByRunID(r.Context(), runID)
	}
	if err != nil {
		jh.logger.Error("failed to read run journal", "run", runID, "error", err)
		jh.jsonError(w, "Failed to read journal", http.StatusInternalServerError)
		return
	}
	if len(list) == 0 && eventType == "" {
		jh.jsonError(w, "Run not found", http.StatusNotFound)
		return
	}
	if list == nil {
		list = []storage.GameEvent{}
	}

	jh.logger.Event("JOURNAL_READ", runID, "events:"+strconv.Itoa(len(list)))
	jh.writeJSON(w, EventsResponse{
		RunID:       runID,
		TotalEvents: len(list),
		FilteredBy:  eventType,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      list,
	})
}

// HandleRecap returns the folded summary of one run.
// GET /api/runs/{id}/recap
func (jh *JournalHandler) HandleRecap(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	recap, err := jh.recon.BuildRecap(r.Context(), runID)
	if errors.Is(err, storage.ErrNotFound) {
		jh.jsonError(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jh.logger.Error("failed to build recap", "run", runID, "error", err)
		jh.jsonError(w, "Failed to build recap", http.StatusInternalServerError)
		return
	}
	jh.writeJSON(w, recap)
}

// RegisterRoutes sets up the journal API routes.
func (jh *JournalHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs", jh.HandleListRuns)
	mux.HandleFunc("GET /api/runs/{id}/events", jh.HandleEvents)
	mux.HandleFunc("GET /api/runs/{id}/recap", jh.HandleRecap)
}

func (jh *JournalHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		jh.logger.Warn("failed to write response", "error", err)
	}
}

// jsonError sends an error response.
func (jh *JournalHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
