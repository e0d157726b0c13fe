package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/mediasel/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Apply(context.Background(), db))
	return db
}

func TestStore_SavedDefaults(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()

	defaults, err := s.SavedDefaults(ctx)
	require.NoError(t, err)
	assert.Empty(t, defaults)

	require.NoError(t, s.SetSavedDefault(ctx, "resolution", "1080p"))
	require.NoError(t, s.SetSavedDefault(ctx, "alliance", "ANi"))
	require.NoError(t, s.SetSavedDefault(ctx, "resolution", "720p"))

	defaults, err = s.SavedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"resolution": "720p", "alliance": "ANi"}, defaults)

	require.NoError(t, s.ClearSavedDefault(ctx, "alliance"))
	defaults, err = s.SavedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"resolution": "720p"}, defaults)
}

func TestStore_SavedDefaultErrors(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()

	err := s.SetSavedDefault(ctx, "codec", "hevc")
	assert.ErrorIs(t, err, ErrConstraint)

	err = s.ClearSavedDefault(ctx, "resolution")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Tx(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetSavedDefault(ctx, "subtitle_language", "zh-Hans"))
	require.NoError(t, tx.Rollback())

	defaults, err := s.SavedDefaults(ctx)
	require.NoError(t, err)
	assert.Empty(t, defaults)

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetSavedDefault(ctx, "subtitle_language", "zh-Hans"))
	require.NoError(t, tx.ClearSavedDefault(ctx, "subtitle_language"))
	require.NoError(t, tx.SetSavedDefault(ctx, "media_source", "bt"))
	inTx, err := tx.SavedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"media_source": "bt"}, inTx)
	require.NoError(t, tx.Commit())

	defaults, err = s.SavedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"media_source": "bt"}, defaults)
}

func TestStore_PreferredWebSource(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()

	_, err := s.PreferredWebSource(ctx, "subject-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetPreferredWebSource(ctx, "subject-1", "web-a"))
	require.NoError(t, s.SetPreferredWebSource(ctx, "subject-2", "web-b"))
	require.NoError(t, s.SetPreferredWebSource(ctx, "subject-1", "web-c"))

	got, err := s.PreferredWebSource(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, "web-c", got)

	require.NoError(t, s.ClearPreferredWebSource(ctx, "subject-1"))
	require.NoError(t, s.ClearPreferredWebSource(ctx, "subject-1"))
	_, err = s.PreferredWebSource(ctx, "subject-1")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = s.PreferredWebSource(ctx, "subject-2")
	require.NoError(t, err)
	assert.Equal(t, "web-b", got)
}

func TestStore_LastSelectedSource(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()

	got, err := s.LastSelectedSource(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SetLastSelectedSource(ctx, "bt"))
	require.NoError(t, s.SetLastSelectedSource(ctx, "web-a"))
	got, err = s.LastSelectedSource(ctx)
	require.NoError(t, err)
	assert.Equal(t, "web-a", got)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, migrations.Apply(context.Background(), db))
}

func TestMapSQLiteError(t *testing.T) {
	assert.NoError(t, mapSQLiteError(nil))
	assert.ErrorIs(t, mapSQLiteError(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapSQLiteError(errors.New("CHECK constraint failed: attribute")), ErrConstraint)

	busy := mapSQLiteError(errors.New("database is locked (5) (SQLITE_BUSY)"))
	assert.ErrorIs(t, busy, ErrBusy)
	assert.Contains(t, busy.Error(), "database is locked")

	other := errors.New("disk I/O error")
	assert.Equal(t, other, mapSQLiteError(other))
}
