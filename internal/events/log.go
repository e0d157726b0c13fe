package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventLog is the SQLite-backed history of published events.
type EventLog struct {
	db *sql.DB
}

// NewEventLog wraps a migrated database.
func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

// Append stores e with its JSON payload and returns the row id.
func (l *EventLog) Append(ctx context.Context, e Event) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	result, err := l.db.ExecContext(ctx, `
		INSERT INTO events (event_type, entity_type, entity_id, run_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventType(), e.EntityType(), e.EntityID(), e.RunID(), string(payload), e.OccurredAt(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}

	return result.LastInsertId()
}

// RawEvent is a stored event before the Registry decodes its payload.
type RawEvent struct {
	ID         int64
	EventType  string
	EntityType string
	EntityID   string
	RunID      string
	Payload    string
	OccurredAt time.Time
	CreatedAt  time.Time
}

// list runs one filtered, ordered query over the events table.
func (l *EventLog) list(ctx context.Context, clause string, args ...any) ([]RawEvent, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, event_type, entity_type, entity_id, run_id, payload, occurred_at, created_at
		FROM events `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Since returns every event that occurred at or after t, oldest first.
func (l *EventLog) Since(ctx context.Context, t time.Time) ([]RawEvent, error) {
	return l.list(ctx, `WHERE occurred_at >= ? ORDER BY id ASC`, t)
}

// ForRun returns every event of one playback run, oldest first.
func (l *EventLog) ForRun(ctx context.Context, runID string) ([]RawEvent, error) {
	return l.list(ctx, `WHERE run_id = ? ORDER BY id ASC`, runID)
}

// ForEntity returns every event about one episode or subject, oldest first.
func (l *EventLog) ForEntity(ctx context.Context, entityType, entityID string) ([]RawEvent, error) {
	return l.list(ctx, `WHERE entity_type = ? AND entity_id = ? ORDER BY id ASC`, entityType, entityID)
}

// Recent returns the newest limit events, newest first.
func (l *EventLog) Recent(ctx context.Context, limit int) ([]RawEvent, error) {
	return l.list(ctx, `ORDER BY id DESC LIMIT ?`, limit)
}

// Prune deletes events that occurred more than olderThan ago and returns
// how many were removed.
func (l *EventLog) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	result, err := l.db.ExecContext(ctx, `DELETE FROM events WHERE occurred_at < ?`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return result.RowsAffected()
}

func scanEvents(rows *sql.Rows) ([]RawEvent, error) {
	var out []RawEvent
	for rows.Next() {
		var e RawEvent
		err := rows.Scan(&e.ID, &e.EventType, &e.EntityType, &e.EntityID, &e.RunID, &e.Payload, &e.OccurredAt, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
