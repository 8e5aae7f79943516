package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	_ "modernc.org/sqlite"             // register sqlite as database/sql driver

	"resume-wizard/internal/shared/metrics"
	"resume-wizard/internal/shared/telemetry"
)

const (
	// DriverPostgres is the pgx stdlib driver name.
	DriverPostgres = "pgx"
	// DriverSQLite is the modernc.org/sqlite driver name.
	DriverSQLite = "sqlite"
)

// Options controls the session database pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

var openDB = sql.Open

// DefaultServerOptions is the Postgres pool used by the API process.
func DefaultServerOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 2 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// DefaultMigrateOptions is a single-connection pool for cmd/migrate.
func DefaultMigrateOptions() Options {
	opts := DefaultServerOptions()
	opts.MaxOpenConns, opts.MaxIdleConns = 1, 1
	return opts
}

// DefaultSQLiteOptions serializes writers; SQLite allows one at a time.
func DefaultSQLiteOptions() Options {
	return Options{
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     2 * time.Second,
	}
}

// OptionsFromEnv applies DB_* overrides to defaults. Unparseable values are
// logged and ignored.
func OptionsFromEnv(defaults Options) Options {
	opts := defaults
	ints := map[string]*int{
		"DB_MAX_OPEN_CONNS": &opts.MaxOpenConns,
		"DB_MAX_IDLE_CONNS": &opts.MaxIdleConns,
	}
	durations := map[string]*time.Duration{
		"DB_CONN_MAX_LIFETIME":  &opts.ConnMaxLifetime,
		"DB_CONN_MAX_IDLE_TIME": &opts.ConnMaxIdleTime,
		"DB_PING_TIMEOUT":       &opts.PingTimeout,
	}
	for key, dst := range ints {
		raw, ok := lookupEnv(key)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			telemetry.Warn("db.invalid_env", map[string]any{"key": key, "error": err})
			continue
		}
		*dst = v
	}
	for key, dst := range durations {
		raw, ok := lookupEnv(key)
		if !ok {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			telemetry.Warn("db.invalid_env", map[string]any{"key": key, "error": err})
			continue
		}
		*dst = v
	}
	return opts
}

func lookupEnv(key string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	return raw, raw != ""
}

// Connect opens the Postgres session database and verifies connectivity.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	return open(ctx, DriverPostgres, databaseURL, opts)
}

// OpenSQLite opens (creating if needed) the local session database file.
func OpenSQLite(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	return open(ctx, DriverSQLite, dsn, opts)
}

func open(ctx context.Context, driver, dsn string, opts Options) (*sql.DB, error) {
	sqlDB, err := openDB(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	configurePool(sqlDB, opts)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	metrics.RegisterDB(sqlDB, driver)
	stats := sqlDB.Stats()
	telemetry.Info("db.opened", map[string]any{
		"driver":   driver,
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
	})
	return sqlDB, nil
}

func configurePool(sqlDB *sql.DB, opts Options) {
	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := opts.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = min(5, maxOpen)
	}
	lifetime := opts.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	if opts.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}
