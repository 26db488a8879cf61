// Package postgres implements repository.Store on PostgreSQL through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sakif/gym-tracker/internal/repository"
)

var _ repository.Store = (*DB)(nil)

type DB struct {
	conn *sql.DB
}

// New connects to the database described by dsn and makes sure the users
// table exists.
func New(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.ensureSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: creating schema: %w", err)
	}

	return db, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) ensureSchema(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			email       TEXT NOT NULL,
			username    TEXT NOT NULL,
			password    TEXT NOT NULL,
			first_name  TEXT NOT NULL,
			last_name   TEXT NOT NULL,
			gender      TEXT NOT NULL CHECK (gender IN ('male', 'female', 'other')),
			height      DOUBLE PRECISION NOT NULL CHECK (height > 0 AND height < 300),
			weight      DOUBLE PRECISION NOT NULL CHECK (weight > 0 AND weight < 500),
			goal_status TEXT NOT NULL CHECK (goal_status IN ('bulking', 'cutting', 'maintaining')),
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("users table: %w", err)
	}

	for _, stmt := range []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + emailIndex + ` ON users (lower(email))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + usernameIndex + ` ON users (lower(username))`,
	} {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("users index: %w", err)
		}
	}

	return nil
}
