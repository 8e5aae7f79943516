package main

// Run database migrations:
//   go run ./cmd/migrate            (Postgres, DATABASE_URL)
//   SESSION_STORE=sqlite go run ./cmd/migrate

import (
	"context"
	"database/sql"
	"os"

	"resume-wizard/internal/shared/config"
	"resume-wizard/internal/shared/storage/db"
	"resume-wizard/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(cfg.LogLevel, cfg.LogFormat)
	defer telemetry.Sync()
	ctx := context.Background()

	var (
		sqlDB  *sql.DB
		driver string
		err    error
	)
	if cfg.SessionStore == "sqlite" {
		driver = db.DriverSQLite
		sqlDB, err = db.OpenSQLite(ctx, cfg.SQLitePath, db.DefaultSQLiteOptions())
	} else {
		driver = db.DriverPostgres
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	}
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"driver": driver, "error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB, driver); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"driver": driver, "error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"driver": driver})
}
