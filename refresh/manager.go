package refresh

import (
	"context"
	"crypto/cipher"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veloryn/authcore/internal"
)

// Config tunes the refresh token lifecycle.
type Config struct {
	// TTL is the refresh token lifetime.
	TTL time.Duration
	// MaxPerAccount caps live records per account; the oldest record is
	// evicted when a new issue would exceed it. <= 0 means unbounded.
	MaxPerAccount int
	// EncryptionKey seals the stored token copy. Must be 32 bytes.
	EncryptionKey []byte

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Manager issues, validates and rotates refresh tokens against a Store.
type Manager struct {
	store Store
	aead  cipher.AEAD
	cfg   Config
	now   func() time.Time
}

// NewManager validates the config and returns a ready [Manager].
func NewManager(store Store, cfg Config) (*Manager, error) {
	if store == nil {
		return nil, errors.New("refresh: store is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("refresh: invalid TTL configuration")
	}

	aead, err := newAEAD(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{store: store, aead: aead, cfg: cfg, now: now}, nil
}

// Issue mints a fresh opaque token for the account and persists its
// record. Returns the raw token, which is never stored.
func (m *Manager) Issue(ctx context.Context, accountID, device, origin string) (string, *Record, error) {
	raw, err := internal.NewRefreshToken()
	if err != nil {
		return "", nil, fmt.Errorf("refresh: generate token: %w", err)
	}

	ciphertext, nonce, err := sealToken(m.aead, raw)
	if err != nil {
		return "", nil, fmt.Errorf("refresh: seal token: %w", err)
	}

	issuedAt := m.now()
	rec := &Record{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		TokenHash:     internal.HashToken(raw),
		TokenCipher:   ciphertext,
		Nonce:         nonce,
		Device:        device,
		OriginAddress: origin,
		CreatedAt:     issuedAt,
		LastUsedAt:    issuedAt,
		ExpiresAt:     issuedAt.Add(m.cfg.TTL),
		Active:        true,
	}

	if err := m.store.Append(ctx, rec, m.cfg.MaxPerAccount); err != nil {
		return "", nil, err
	}

	return raw, rec, nil
}

// Validate checks a presented token without consuming it. The record's
// last-used time is stamped on success. Failure modes:
//
//   - ErrNotFound: no record carries this token's hash
//   - ErrReuse: the record exists but was already retired
//   - ErrExpired: the record's lifetime elapsed (it is retired here)
//   - ErrMismatch: the sealed copy does not match the presented token
func (m *Manager) Validate(ctx context.Context, raw string) (*Record, error) {
	rec, err := m.store.FindByHash(ctx, internal.HashToken(raw))
	if err != nil {
		return nil, err
	}

	if !rec.Active {
		return nil, ErrReuse
	}

	now := m.now()
	if rec.Expired(now) {
		if _, err := m.store.Deactivate(ctx, rec.ID); err != nil {
			return nil, err
		}
		return nil, ErrExpired
	}

	stored, err := openToken(m.aead, rec.TokenCipher, rec.Nonce)
	if err != nil || !internal.TokensEqual(stored, raw) {
		return nil, ErrMismatch
	}

	if err := m.store.MarkUsed(ctx, rec.ID, now); err != nil {
		return nil, err
	}
	rec.LastUsedAt = now

	return rec, nil
}

// Rotate consumes the presented token and issues a replacement bound to
// the same account. Exactly one of two racing rotations wins; the loser
// gets ErrNotFound. Device and origin default to the old record's
// values when empty.
func (m *Manager) Rotate(ctx context.Context, raw, device, origin string) (string, *Record, error) {
	old, err := m.Validate(ctx, raw)
	if err != nil {
		return "", nil, err
	}

	won, err := m.store.Deactivate(ctx, old.ID)
	if err != nil {
		return "", nil, err
	}
	if !won {
		return "", nil, ErrNotFound
	}

	if device == "" {
		device = old.Device
	}
	if origin == "" {
		origin = old.OriginAddress
	}

	return m.Issue(ctx, old.AccountID, device, origin)
}

// Revoke retires the record for a presented token. Revoking an unknown
// or already retired token is a no-op.
func (m *Manager) Revoke(ctx context.Context, raw string) error {
	rec, err := m.store.FindByHash(ctx, internal.HashToken(raw))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = m.store.Deactivate(ctx, rec.ID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// RevokeAll retires every active record for the account and returns how
// many were live.
func (m *Manager) RevokeAll(ctx context.Context, accountID string) (int, error) {
	return m.store.DeactivateAll(ctx, accountID)
}

// Sessions lists the account's active sessions without token material.
func (m *Manager) Sessions(ctx context.Context, accountID string) ([]Session, error) {
	recs, err := m.store.ListActive(ctx, accountID, m.now())
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(recs))
	for _, rec := range recs {
		sessions = append(sessions, Session{
			ID:            rec.ID,
			Device:        rec.Device,
			OriginAddress: rec.OriginAddress,
			CreatedAt:     rec.CreatedAt,
			LastUsedAt:    rec.LastUsedAt,
			ExpiresAt:     rec.ExpiresAt,
		})
	}
	return sessions, nil
}
