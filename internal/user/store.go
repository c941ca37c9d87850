package user

import (
	"context"
	"time"
)

// Store persists accounts.
type Store interface {
	// Insert creates a new account. Returns ErrEmailTaken on a duplicate
	// email.
	Insert(ctx context.Context, u *User) error

	// FindByEmail returns the account for the email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID returns the account for the id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*User, error)

	// RecordLogin stamps the account's last successful login.
	RecordLogin(ctx context.Context, id string, at time.Time) error

	// SetActive flips the soft-deactivation flag. Returns ErrNotFound for
	// an unknown account.
	SetActive(ctx context.Context, id string, active bool) error
}
