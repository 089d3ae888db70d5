package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/digkill/futurepro/internal/database"
)

// NewDB creates a migrated SQLite database in a temp directory. It is closed on cleanup.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(context.Background(), db, database.DriverSQLite); err != nil {
		db.Close()
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
