// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/JustinTDCT/CineList/internal/db"
)

// Open returns a fresh in-memory SQLite database with the schema applied.
func Open(t testing.TB) *db.DB {
	t.Helper()
	database, err := db.Connect(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return database
}
