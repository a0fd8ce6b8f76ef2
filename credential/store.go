package credential

import (
	"context"
	"errors"
	"time"
)

// Store errors. Backends wrap driver failures so callers can match with
// errors.Is.
var (
	ErrNotFound  = errors.New("credential: account not found")
	ErrDuplicate = errors.New("credential: handle already in use")
)

// Store persists accounts and applies lockout accounting atomically per
// account. Implementations must guarantee that concurrent
// RecordFailedLogin calls for the same account never lose an increment.
type Store interface {
	// Create inserts a new account. Returns ErrDuplicate when the
	// handle is already taken.
	Create(ctx context.Context, account *Account) error

	FindByHandle(ctx context.Context, handle string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)

	// RecordFailedLogin increments the failed-login counter. The lock
	// expiry is set to lockUntil only when the counter lands exactly on
	// threshold; later failures keep counting but never move an
	// existing expiry. Returns the account after the update.
	RecordFailedLogin(ctx context.Context, id string, threshold int, lockUntil time.Time) (*Account, error)

	// RecordSuccessfulLogin resets the counter, clears the lock expiry
	// and stamps the last-login time.
	RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error

	// UpdatePasswordHash replaces the stored hash, used for transparent
	// cost upgrades on login.
	UpdatePasswordHash(ctx context.Context, id string, hash string) error

	// Delete removes the account row. Refresh records and revocation
	// entries are the caller's responsibility.
	Delete(ctx context.Context, id string) error
}
