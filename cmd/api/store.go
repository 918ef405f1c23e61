package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/fastprodman/pointsledger/internal/config"
	"github.com/fastprodman/pointsledger/internal/infra/pgutils"
	"github.com/fastprodman/pointsledger/internal/infra/sqliteutil"
)

// openStore opens the configured ledger backend. The Postgres schema is
// owned by cmd/migrator; SQLite is migrated on open.
func openStore(ctx context.Context, cfg config.StoreConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := pgutils.OpenDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	case config.DriverSQLite:
		db, err := sqliteutil.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		slog.Info("using sqlite store", "path", cfg.SQLite.Path)
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
