// Package store persists learned selection preferences in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// KeyLastSelectedSource is the settings key of the last selected source.
const KeyLastSelectedSource = "last_selected_source"

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store provides access to persisted preferences.
type Store struct {
	db *sql.DB
}

// New creates a store on an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// mapSQLiteError converts SQLite errors to package errors.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; match on the message.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "CHECK constraint failed"):
		return ErrConstraint
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	return err
}

func savedDefaults(ctx context.Context, q querier) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT attribute, value FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var attr, value string
		if err := rows.Scan(&attr, &value); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		out[attr] = value
	}
	return out, rows.Err()
}

// SavedDefaults returns every saved default keyed by attribute name.
func (s *Store) SavedDefaults(ctx context.Context) (map[string]string, error) {
	return savedDefaults(ctx, s.db)
}

// SavedDefaults returns every saved default within a transaction.
func (t *Tx) SavedDefaults(ctx context.Context) (map[string]string, error) {
	return savedDefaults(ctx, t.tx)
}

func setSavedDefault(ctx context.Context, q querier, attribute, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO preferences (attribute, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(attribute) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		attribute, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save default %s: %w", attribute, mapSQLiteError(err))
	}
	return nil
}

// SetSavedDefault stores value as the default of attribute.
// Returns ErrConstraint for an unknown attribute.
func (s *Store) SetSavedDefault(ctx context.Context, attribute, value string) error {
	return setSavedDefault(ctx, s.db, attribute, value)
}

// SetSavedDefault stores a default within a transaction.
func (t *Tx) SetSavedDefault(ctx context.Context, attribute, value string) error {
	return setSavedDefault(ctx, t.tx, attribute, value)
}

func clearSavedDefault(ctx context.Context, q querier, attribute string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM preferences WHERE attribute = ?`, attribute)
	if err != nil {
		return fmt.Errorf("clear default %s: %w", attribute, mapSQLiteError(err))
	}
	return requireAffected(result, attribute)
}

// ClearSavedDefault removes the default of attribute.
// Returns ErrNotFound if none was saved.
func (s *Store) ClearSavedDefault(ctx context.Context, attribute string) error {
	return clearSavedDefault(ctx, s.db, attribute)
}

// ClearSavedDefault removes a default within a transaction.
func (t *Tx) ClearSavedDefault(ctx context.Context, attribute string) error {
	return clearSavedDefault(ctx, t.tx, attribute)
}

// PreferredWebSource returns the learned web source of a subject.
// Returns ErrNotFound if none was learned.
func (s *Store) PreferredWebSource(ctx context.Context, subjectID string) (string, error) {
	var source string
	err := s.db.QueryRowContext(ctx,
		`SELECT source_id FROM web_source_preferences WHERE subject_id = ?`, subjectID,
	).Scan(&source)
	if err != nil {
		return "", fmt.Errorf("preferred web source %s: %w", subjectID, mapSQLiteError(err))
	}
	return source, nil
}

// SetPreferredWebSource records sourceID as the subject's preferred web source.
func (s *Store) SetPreferredWebSource(ctx context.Context, subjectID, sourceID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO web_source_preferences (subject_id, source_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(subject_id) DO UPDATE SET source_id = excluded.source_id, updated_at = excluded.updated_at`,
		subjectID, sourceID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set preferred web source %s: %w", subjectID, mapSQLiteError(err))
	}
	return nil
}

// ClearPreferredWebSource forgets the subject's preferred web source.
// Clearing a subject without one is not an error.
func (s *Store) ClearPreferredWebSource(ctx context.Context, subjectID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM web_source_preferences WHERE subject_id = ?`, subjectID); err != nil {
		return fmt.Errorf("clear preferred web source %s: %w", subjectID, mapSQLiteError(err))
	}
	return nil
}

// LastSelectedSource returns the source of the last selection, or "" if
// nothing was ever selected.
func (s *Store) LastSelectedSource(ctx context.Context) (string, error) {
	var source string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, KeyLastSelectedSource,
	).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last selected source: %w", err)
	}
	return source, nil
}

// SetLastSelectedSource records the source of the latest selection.
func (s *Store) SetLastSelectedSource(ctx context.Context, sourceID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		KeyLastSelectedSource, sourceID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set last selected source: %w", mapSQLiteError(err))
	}
	return nil
}

func requireAffected(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
