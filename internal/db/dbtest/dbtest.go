// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/trakapp/trak/internal/db"
)

// New returns a migrated SQLite database in a temp dir, closed on cleanup.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "trak.db")
	conn, err := db.Init("sqlite", path+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	err = db.RunMigrations(conn.DB, "sqlite")
	require.NoError(t, err)

	return conn
}
