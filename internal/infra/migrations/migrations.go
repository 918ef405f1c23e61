// Package migrations embeds the schema for both ledger backends and applies
// it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed seed/*.sql
var seedFS embed.FS

// seed migrations keep their own version table so they never collide with the schema versions
const seedTable = "seed_migrations"

// Postgres applies the schema to db. When withSeed is set, demo rows are added too.
func Postgres(db *sql.DB, withSeed bool) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init postgres driver: %w", err)
	}

	err = run(driver, "postgres", postgresFS, "postgres")
	if err != nil {
		return fmt.Errorf("schema migrations: %w", err)
	}

	if !withSeed {
		return nil
	}

	seedDriver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: seedTable})
	if err != nil {
		return fmt.Errorf("init postgres seed driver: %w", err)
	}

	err = run(seedDriver, "postgres", seedFS, "seed")
	if err != nil {
		return fmt.Errorf("seed migrations: %w", err)
	}

	return nil
}

// SQLite applies the SQLite flavour of the schema to db.
func SQLite(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("init sqlite driver: %w", err)
	}

	err = run(driver, "sqlite3", sqliteFS, "sqlite")
	if err != nil {
		return fmt.Errorf("schema migrations: %w", err)
	}

	return nil
}

func run(driver database.Driver, dbName string, fsys embed.FS, dir string) error {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("m.Up: %w", err)
	}

	return nil
}
