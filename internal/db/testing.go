package db

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

// NewTestDB opens a migrated SQLite database in a per-test temp directory.
func NewTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := Init("sqlite", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	err = RunMigrations(database.DB, "sqlite")
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return database
}
