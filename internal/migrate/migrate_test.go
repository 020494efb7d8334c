package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteUpDown(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "migrate.db")

	require.NoError(t, Up(ctx, "sqlite", dsn))
	v, err := Version(ctx, "sqlite", dsn)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	assert.True(t, hasTable(t, dsn, "reports"))

	require.NoError(t, Down(ctx, "sqlite", dsn))
	v, err = Version(ctx, "sqlite", dsn)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.False(t, hasTable(t, dsn, "reports"))

	// Re-applying is a no-op for already applied versions.
	require.NoError(t, Up(ctx, "sqlite", dsn))
	require.NoError(t, Up(ctx, "sqlite", dsn))
}

func TestUnsupportedDriver(t *testing.T) {
	assert.Error(t, Up(context.Background(), "oracle", "x"))
	assert.Error(t, Up(context.Background(), "memory", ""))
}

func TestMigrationDir(t *testing.T) {
	assert.Equal(t, "migrations/postgres", migrationDir("postgrespool"))
	assert.Equal(t, "migrations/sqlite", migrationDir("sqlite"))
}

func hasTable(t *testing.T, dsn, name string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n))
	return n == 1
}
