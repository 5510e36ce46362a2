package localstore

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestStore opens a migrated in-memory SQLite store.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err, "Failed to open test database")
	require.NoError(t, Migrate(ctx, db, DriverSQLite), "Failed to run migrations")
	t.Cleanup(func() { _ = db.Close() })

	return New(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	require.Error(t, err)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, Migrate(context.Background(), s.DB(), DriverSQLite))
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "$1", placeholders(1, 1))
	require.Equal(t, "$3, $4, $5", placeholders(3, 3))
	require.Equal(t, "", placeholders(1, 0))
}
