// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/educacao-adventista/matriculometro/internal/db"
)

// New returns an in-memory SQLite database with all migrations applied.
// It is closed when the test ends.
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("dbtest.New() failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close(database)
	})

	err = db.RunMigrations(database.DB, "sqlite")
	if err != nil {
		t.Fatalf("dbtest.New() migrations failed: %v", err)
	}

	return database
}
