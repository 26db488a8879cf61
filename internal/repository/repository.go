// Package repository declares the storage contract of the service. The
// sqlite and postgres subpackages implement it.
package repository

import (
	"context"

	"github.com/sakif/gym-tracker/internal/model"
)

// Conflict messages returned (as apperror.Conflict) when a unique index
// rejects an insert. They match the messages of the application-level
// checks so a lost race looks the same to the client as a plain duplicate.
const (
	MsgEmailInUse    = "email already in use"
	MsgUsernameInUse = "username already in use"
)

// AccountRepository is the credential store.
//
// All email and username comparisons are case-insensitive.
type AccountRepository interface {
	// Create inserts account with is_verified = false and fills in ID,
	// CreatedAt and UpdatedAt. A unique violation is an apperror.Conflict.
	Create(ctx context.Context, account *model.Account) error

	// GetByEmail returns apperror.ErrNotFound when no account matches.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)

	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)

	// MarkVerified sets is_verified = true on the matching unverified
	// account. It reports whether a row changed; false means the account
	// does not exist or was already verified.
	MarkVerified(ctx context.Context, email string) (bool, error)
}

// Store is an AccountRepository that owns a connection pool.
type Store interface {
	AccountRepository
	Ping(ctx context.Context) error
	Close() error
}
