package credential

import (
	"errors"
	"time"
	"unicode"
)

const (
	// HandleMinLength and HandleMaxLength bound account handles.
	HandleMinLength = 3
	HandleMaxLength = 30
)

// ErrInvalidHandle is returned for handles outside the allowed shape.
var ErrInvalidHandle = errors.New("credential: invalid handle")

// Account is the identity record for one user.
type Account struct {
	ID           string
	Handle       string
	PasswordHash string
	FailedLogins int
	// LockedUntil is nil while the account has never been locked and
	// stays set after expiry until the next successful login clears it.
	LockedUntil *time.Time
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

// Locked reports whether the account is locked at the given instant.
// An expired lock expiry counts as unlocked.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// ValidateHandle checks length and character shape against the default
// 3 to 30 rune bounds. Handles are printable, non-space characters.
func ValidateHandle(handle string) error {
	return ValidateHandleBounds(handle, HandleMinLength, HandleMaxLength)
}

// ValidateHandleBounds is ValidateHandle with caller-supplied length
// bounds. Non-positive bounds fall back to the defaults.
func ValidateHandleBounds(handle string, minLen, maxLen int) error {
	if minLen <= 0 {
		minLen = HandleMinLength
	}
	if maxLen <= 0 {
		maxLen = HandleMaxLength
	}

	runes := []rune(handle)
	if len(runes) < minLen || len(runes) > maxLen {
		return ErrInvalidHandle
	}
	for _, r := range runes {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return ErrInvalidHandle
		}
	}
	return nil
}
