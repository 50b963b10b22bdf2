package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const eventColumns = `id, run_id, timestamp, event_type, payload, game_timer`

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `INSERT INTO events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.RunID, event.Timestamp.UnixNano(), event.EventType,
		string(payloadBytes), event.GameTimer,
	)
	if err != nil {
		return fmt.Errorf("failed to append event %s: %w", event.ID, err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...any) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var ts int64
		var payloadStr string
		if err := rows.Scan(&e.ID, &e.RunID, &ts, &e.EventType, &payloadStr, &e.GameTimer); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload of %s: %w", e.ID, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetByRunID(ctx context.Context, runID string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE run_id = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, runID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, runID string, eventType string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE run_id = ? AND event_type = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, runID, eventType)
}

func (r *SQLiteEventRepository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT run_id, MIN(timestamp), MAX(timestamp), COUNT(*)
		FROM events
		GROUP BY run_id
		ORDER BY MAX(seq) DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var s RunSummary
		var first, last int64
		if err := rows.Scan(&s.RunID, &first, &last, &s.Events); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.FirstEvent = time.Unix(0, first)
		s.LastEvent = time.Unix(0, last)
		runs = append(runs, s)
	}
	return runs, rows.Err()
}
