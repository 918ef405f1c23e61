package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/fastprodman/pointsledger/internal/config"
	"github.com/fastprodman/pointsledger/internal/infra/logging"
	"github.com/fastprodman/pointsledger/internal/infra/migrations"
	"github.com/fastprodman/pointsledger/internal/infra/pgutils"
	"github.com/fastprodman/pointsledger/internal/infra/sqliteutil"
	"github.com/fastprodman/pointsledger/pkg/envconf"
)

type migratorConfig struct {
	LogLevel slog.Level `env:"APP_LOG_LEVEL" default:"INFO"`
	AppEnv   string     `env:"APP_ENV" default:"PROD"`
	Store    config.StoreConfig
}

func main() {
	err := migrateAll()
	if err != nil {
		slog.Error("migration run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("migration run finished successfully")
}

func migrateAll() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg := new(migratorConfig)

	err = envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	if cfg.Store.Driver == config.DriverSQLite {
		// Open applies the schema
		db, err := sqliteutil.Open(cfg.Store.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite migrations failed: %w", err)
		}

		slog.Info("sqlite schema applied", "path", cfg.Store.SQLite.Path)
		return db.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := pgutils.OpenDB(ctx, cfg.Store.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	//nolint:errcheck
	defer db.Close()

	withSeed := cfg.AppEnv == "DEV"

	err = migrations.Postgres(db.DB, withSeed)
	if err != nil {
		return fmt.Errorf("postgres migrations failed: %w", err)
	}

	slog.Info("postgres migrations applied", "seed", withSeed)

	return nil
}
