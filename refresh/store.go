package refresh

import (
	"context"
	"errors"
	"time"
)

// Manager errors, also returned by stores where noted.
var (
	ErrNotFound = errors.New("refresh: token not found")
	ErrExpired  = errors.New("refresh: token expired")
	ErrMismatch = errors.New("refresh: token mismatch")
	ErrReuse    = errors.New("refresh: retired token presented")
)

// Store persists refresh-token records. Mutations for one account must
// be atomic: Deactivate is a compare-and-swap on the active flag so
// racing rotations elect exactly one winner.
type Store interface {
	// Append inserts the record. When the account already holds
	// maxPerAccount records the oldest by creation time is dropped to
	// make room. maxPerAccount <= 0 means unbounded.
	Append(ctx context.Context, rec *Record, maxPerAccount int) error

	// FindByHash returns the record with the given token hash, active
	// or not. Returns ErrNotFound when no record exists.
	FindByHash(ctx context.Context, hash string) (*Record, error)

	// Deactivate clears the active flag. Returns true when this call
	// made the transition, false when the record was already inactive.
	Deactivate(ctx context.Context, id string) (bool, error)

	// DeactivateAll retires every active record for the account and
	// returns how many it touched.
	DeactivateAll(ctx context.Context, accountID string) (int, error)

	// MarkUsed stamps the record's last-used time.
	MarkUsed(ctx context.Context, id string, at time.Time) error

	// ListActive returns the account's active, unexpired records,
	// newest first.
	ListActive(ctx context.Context, accountID string, now time.Time) ([]*Record, error)
}
