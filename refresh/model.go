package refresh

import "time"

// Record is one stored refresh token. The raw token never appears here:
// TokenHash is its SHA-256 hex and TokenCipher an AES-GCM sealed copy.
type Record struct {
	ID            string
	AccountID     string
	TokenHash     string
	TokenCipher   []byte
	Nonce         []byte
	Device        string
	OriginAddress string
	CreatedAt     time.Time
	LastUsedAt    time.Time
	ExpiresAt     time.Time
	Active        bool
}

// Expired reports whether the record's lifetime has elapsed.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Session is the caller-facing view of an active record, exposed by
// session listings. It never carries token material.
type Session struct {
	ID            string
	Device        string
	OriginAddress string
	CreatedAt     time.Time
	LastUsedAt    time.Time
	ExpiresAt     time.Time
}
