package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/gym-tracker/internal/apperror"
	"github.com/sakif/gym-tracker/internal/model"
	"github.com/sakif/gym-tracker/internal/repository"
)

const (
	emailIndex    = "idx_users_email_lower"
	usernameIndex = "idx_users_username_lower"
)

const accountColumns = `id, email, username, password, first_name, last_name,
	gender, height, weight, goal_status, is_verified, created_at, updated_at`

// Create inserts a new, unverified account.
//
// The ID is an xid (20 chars, URL-safe, time-sortable) generated here, so
// the caller's struct is complete once Create returns.
func (db *DB) Create(ctx context.Context, account *model.Account) error {
	now := time.Now().UTC()
	account.ID = xid.New().String()
	account.IsVerified = false
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password, first_name, last_name,
			gender, height, weight, goal_status, is_verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		account.ID,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		string(account.Gender),
		account.Height,
		account.Weight,
		string(account.GoalStatus),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("sqlite: inserting account %s: %w", account.Email, err)
	}

	return nil
}

// GetByEmail returns the account whose email matches case-insensitively.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var (
		a          model.Account
		gender     string
		goalStatus string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM users WHERE lower(email) = lower(?)`,
		email,
	).Scan(
		&a.ID,
		&a.Email,
		&a.Username,
		&a.PasswordHash,
		&a.FirstName,
		&a.LastName,
		&gender,
		&a.Height,
		&a.Weight,
		&goalStatus,
		&a.IsVerified,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", email)
		}
		return nil, fmt.Errorf("sqlite: getting account %s: %w", email, err)
	}

	a.Gender = model.Gender(gender)
	a.GoalStatus = model.GoalStatus(goalStatus)
	return &a, nil
}

func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower(?))`, email)
}

func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	return db.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(username) = lower(?))`, username)
}

// MarkVerified flips is_verified on the unverified account for email.
// The is_verified = 0 guard makes the transition one-way.
func (db *DB) MarkVerified(ctx context.Context, email string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET is_verified = 1, updated_at = ?
		 WHERE lower(email) = lower(?) AND is_verified = 0`,
		time.Now().UTC(), email,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: verifying account %s: %w", email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	return n > 0, nil
}

func (db *DB) exists(ctx context.Context, query string, arg string) (bool, error) {
	var found bool
	if err := db.conn.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("sqlite: existence check: %w", err)
	}
	return found, nil
}

// uniqueViolation maps a UNIQUE constraint failure on one of the lower()
// indexes to the matching apperror.Conflict. Any other error yields nil.
//
// SQLite reports the index name in the message, e.g.
// "UNIQUE constraint failed: index 'idx_users_email_lower'".
func uniqueViolation(err error) error {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return nil
	}

	msg := se.Error()
	switch {
	case strings.Contains(msg, emailIndex):
		return apperror.Conflict("email", repository.MsgEmailInUse)
	case strings.Contains(msg, usernameIndex):
		return apperror.Conflict("username", repository.MsgUsernameInUse)
	}
	return nil
}
