package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/xid"

	"github.com/sakif/gym-tracker/internal/apperror"
	"github.com/sakif/gym-tracker/internal/model"
	"github.com/sakif/gym-tracker/internal/repository"
)

const (
	emailIndex    = "users_email_lower_key"
	usernameIndex = "users_username_lower_key"

	// SQLSTATE unique_violation.
	codeUniqueViolation = "23505"
)

func (db *DB) Create(ctx context.Context, account *model.Account) error {
	now := time.Now().UTC()
	account.ID = xid.New().String()
	account.IsVerified = false
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password, first_name, last_name,
			gender, height, weight, goal_status, is_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, $11, $12)`,
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
		return fmt.Errorf("postgres: inserting account %s: %w", account.Email, err)
	}
	return nil
}

func (db *DB) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var (
		a          model.Account
		gender     string
		goalStatus string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, username, password, first_name, last_name,
			gender, height, weight, goal_status, is_verified, created_at, updated_at
		 FROM users WHERE lower(email) = lower($1)`,
		email,
	).Scan(
		&a.ID, &a.Email, &a.Username, &a.PasswordHash, &a.FirstName, &a.LastName,
		&gender, &a.Height, &a.Weight, &goalStatus, &a.IsVerified, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("account", email)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: getting account %s: %w", email, err)
	}

	a.Gender = model.Gender(gender)
	a.GoalStatus = model.GoalStatus(goalStatus)
	return &a, nil
}

func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email)
}

func (db *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	return db.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(username) = lower($1))`, username)
}

func (db *DB) MarkVerified(ctx context.Context, email string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET is_verified = TRUE, updated_at = $1
		 WHERE lower(email) = lower($2) AND NOT is_verified`,
		time.Now().UTC(), email,
	)
	if err != nil {
		return false, fmt.Errorf("postgres: verifying account %s: %w", email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("postgres: reading rows affected: %w", err)
	}
	return n > 0, nil
}

func (db *DB) exists(ctx context.Context, query, arg string) (bool, error) {
	var found bool
	if err := db.conn.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("postgres: existence check: %w", err)
	}
	return found, nil
}

// uniqueViolation turns a 23505 on one of the lower() indexes into the
// matching conflict. Other errors yield nil.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return nil
	}

	switch pgErr.ConstraintName {
	case emailIndex:
		return apperror.Conflict("email", repository.MsgEmailInUse)
	case usernameIndex:
		return apperror.Conflict("username", repository.MsgUsernameInUse)
	}
	return nil
}
