// Package database owns the connection to the people database: opening and
// verifying the pool, handing out one scoped connection per operation, and
// reporting health.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/heptiolabs/healthcheck"

	"github.com/aoideee/peopleview/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib" // Register the "pgx" driver with database/sql.
	_ "github.com/lib/pq"              // Register the "postgres" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"    // Register the "sqlite3" driver with database/sql.
)

// pingTimeout bounds the reachability check done when the pool is opened.
const pingTimeout = 5 * time.Second

// Open opens a connection pool using cfg, then pings the database to
// confirm it is reachable. Returns the pool on success, or an error if the
// connection cannot be established.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	// sql.Open only validates the DSN format; it does not actually connect yet.
	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite serialises writers anyway; one connection keeps an
		// in-memory database alive and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(15 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	// PingContext performs a real round-trip to verify the database is reachable.
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping %s: %w", cfg, err)
	}

	return db, nil
}

// Scoped acquires a single connection from db, runs fn with it and releases
// the connection on every exit path, including a panic inside fn.
func Scoped(ctx context.Context, db *sql.DB, fn func(conn *sql.Conn) error) (err error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("database: acquire connection: %w", err)
	}
	defer func() {
		// Close returns the connection to the pool; a second Close is
		// reported as ErrConnDone, which is not a failure of the operation.
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, sql.ErrConnDone) && err == nil {
			err = fmt.Errorf("database: release connection: %w", cerr)
		}
	}()

	return fn(conn)
}

// HealthCheck returns a readiness check that pings db.
func HealthCheck(db *sql.DB) healthcheck.Check {
	return healthcheck.DatabasePingCheck(db, time.Second)
}
