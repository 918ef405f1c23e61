// Package sqliteutil opens migrated SQLite handles for the embedded ledger
// backend and for tests.
package sqliteutil

import (
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/fastprodman/pointsledger/internal/infra/migrations"
)

const DriverName = "sqlite3"

// TimeLayout is fixed width so stored timestamps sort lexically.
const TimeLayout = "2006-01-02 15:04:05.000000000"

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a private in-memory database.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", path)
	if path != ":memory:" {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sqlx.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// single writer; also keeps an in-memory database on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	err = db.Ping()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	err = migrations.SQLite(db.DB)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return db, nil
}

// NewTestDB returns a fresh in-memory database closed at test cleanup.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open sqlite test db: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}
