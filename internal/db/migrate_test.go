package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsUpAndDown(t *testing.T) {
	conn, err := Init("sqlite", filepath.Join(t.TempDir(), "nested", "trak.db"))
	require.NoError(t, err)
	defer func() { _ = Close(conn) }()

	require.NoError(t, RunMigrations(conn.DB, "sqlite"))

	tables := func() []string {
		var names []string
		err := conn.Select(&names, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'goose_%' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
		require.NoError(t, err)
		return names
	}

	all := []string{"challenges", "commute_logs", "rewards", "tokens", "user_challenges", "user_redemptions", "users"}
	assert.Equal(t, all, tables())

	// Running again is a no-op
	require.NoError(t, RunMigrations(conn.DB, "sqlite"))

	require.NoError(t, MigrateDown(conn.DB, "sqlite"))
	assert.Equal(t, []string{"challenges", "commute_logs", "rewards", "user_challenges", "user_redemptions", "users"}, tables())

	require.NoError(t, MigrateDown(conn.DB, "sqlite"))
	assert.Equal(t, []string{"commute_logs", "users"}, tables())
}

func TestDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", getDialect("sqlite"))
	assert.Equal(t, "postgres", getDialect("pgx"))
	assert.Equal(t, "mysql", getDialect("mysql"))
}
