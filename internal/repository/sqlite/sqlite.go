// Package sqlite implements repository.Store on an embedded SQLite database.
//
// WHY SQLITE?
// It is the zero-infrastructure store: one file, no server. Local
// development and every repository/handler test run on it (":memory:"),
// while production deployments use the postgres package.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary builds without CGo.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/gym-tracker/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and creates the schema.
//
// dbPath examples:
//   - "data/gym-tracker.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database, so the
	// pool must never open a second one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a registration is being written.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Wait for a competing writer instead of failing with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool. Defer it right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the users table and its indexes.
//
// CREATE ... IF NOT EXISTS keeps this idempotent: it runs on every start.
// The unique expression indexes on lower(email) and lower(username) are what
// make the uniqueness invariant hold under concurrent registrations.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			email       TEXT NOT NULL,
			username    TEXT NOT NULL,
			password    TEXT NOT NULL,
			first_name  TEXT NOT NULL,
			last_name   TEXT NOT NULL,
			gender      TEXT NOT NULL CHECK (gender IN ('male', 'female', 'other')),
			height      REAL NOT NULL CHECK (height > 0 AND height < 300),
			weight      REAL NOT NULL CHECK (weight > 0 AND weight < 500),
			goal_status TEXT NOT NULL CHECK (goal_status IN ('bulking', 'cutting', 'maintaining')),
			is_verified INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS ` + emailIndex + ` ON users(lower(email));
		CREATE UNIQUE INDEX IF NOT EXISTS ` + usernameIndex + ` ON users(lower(username));
	`)
	if err != nil {
		return fmt.Errorf("creating users indexes: %w", err)
	}

	return nil
}
