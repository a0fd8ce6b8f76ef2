package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	if cfg.TTL == 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	if cfg.EncryptionKey == nil {
		cfg.EncryptionKey = testKey()
	}
	m, err := NewManager(store, cfg)
	require.NoError(t, err)
	return m, store
}

func TestIssueAndValidate(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{})

	raw, rec, err := m.Issue(ctx, "acct-1", "firefox/linux", "203.0.113.9")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.True(t, rec.Active)
	assert.Equal(t, "firefox/linux", rec.Device)

	got, err := m.Validate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "acct-1", got.AccountID)
}

func TestValidateUnknownToken(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{})

	_, err := m.Validate(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRotateConsumesOldToken(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{})

	oldRaw, _, err := m.Issue(ctx, "acct-1", "dev", "ip")
	require.NoError(t, err)

	newRaw, newRec, err := m.Rotate(ctx, oldRaw, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, oldRaw, newRaw)
	assert.Equal(t, "acct-1", newRec.AccountID)
	assert.Equal(t, "dev", newRec.Device)

	// The retired token is a reuse signal, not a plain miss.
	_, err = m.Validate(ctx, oldRaw)
	assert.ErrorIs(t, err, ErrReuse)

	_, err = m.Validate(ctx, newRaw)
	require.NoError(t, err)
}

func TestRotateRaceElectsOneWinner(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{})

	raw, _, err := m.Issue(ctx, "acct-1", "dev", "ip")
	require.NoError(t, err)

	const n = 16
	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := m.Rotate(ctx, raw, "", ""); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())
}

func TestValidateExpiredToken(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := start

	m, _ := newTestManager(t, Config{
		TTL: 7 * 24 * time.Hour,
		Now: func() time.Time { return clock },
	})

	raw, _, err := m.Issue(ctx, "acct-1", "dev", "ip")
	require.NoError(t, err)

	clock = start.Add(7*24*time.Hour + time.Minute)
	_, err = m.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrExpired)

	// Expiry retires the record, so the second attempt reads as reuse.
	_, err = m.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrReuse)
}

func TestSealedCopyMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	issuerKey := testKey()
	otherKey := testKey()
	otherKey[0] ^= 0xff

	issuer, err := NewManager(store, Config{TTL: time.Hour, EncryptionKey: issuerKey})
	require.NoError(t, err)
	verifier, err := NewManager(store, Config{TTL: time.Hour, EncryptionKey: otherKey})
	require.NoError(t, err)

	raw, _, err := issuer.Issue(ctx, "acct-1", "dev", "ip")
	require.NoError(t, err)

	_, err = verifier.Validate(ctx, raw)
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestIssueEvictsOldestBeyondCap(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := start

	m, _ := newTestManager(t, Config{
		TTL:           7 * 24 * time.Hour,
		MaxPerAccount: 5,
		Now:           func() time.Time { return clock },
	})

	var raws []string
	for i := 0; i < 6; i++ {
		clock = start.Add(time.Duration(i) * time.Minute)
		raw, _, err := m.Issue(ctx, "acct-1", "dev", "ip")
		require.NoError(t, err)
		raws = append(raws, raw)
	}

	// The first token's record was dropped to make room.
	_, err := m.Validate(ctx, raws[0])
	assert.ErrorIs(t, err, ErrNotFound)

	sessions, err := m.Sessions(ctx, "acct-1")
	require.NoError(t, err)
	assert.Len(t, sessions, 5)

	for _, raw := range raws[1:] {
		_, err := m.Validate(ctx, raw)
		assert.NoError(t, err)
	}
}

func TestRevokeAndRevokeAll(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{})

	first, _, err := m.Issue(ctx, "acct-1", "dev-a", "ip")
	require.NoError(t, err)
	second, _, err := m.Issue(ctx, "acct-1", "dev-b", "ip")
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, first))
	_, err = m.Validate(ctx, first)
	assert.ErrorIs(t, err, ErrReuse)

	// Revoking twice is a no-op.
	require.NoError(t, m.Revoke(ctx, first))

	n, err := m.RevokeAll(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = m.Validate(ctx, second)
	assert.ErrorIs(t, err, ErrReuse)

	sessions, err := m.Sessions(ctx, "acct-1")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRevokeUnknownTokenIsNoOp(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{})

	require.NoError(t, m.Revoke(ctx, "never-issued-token"))
}

func TestSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := start

	m, _ := newTestManager(t, Config{
		TTL: 7 * 24 * time.Hour,
		Now: func() time.Time { return clock },
	})

	devices := []string{"dev-a", "dev-b", "dev-c"}
	for i, dev := range devices {
		clock = start.Add(time.Duration(i) * time.Minute)
		_, _, err := m.Issue(ctx, "acct-1", dev, "ip")
		require.NoError(t, err)
	}

	sessions, err := m.Sessions(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	assert.Equal(t, "dev-c", sessions[0].Device)
	assert.Equal(t, "dev-b", sessions[1].Device)
	assert.Equal(t, "dev-a", sessions[2].Device)
	for i := 1; i < len(sessions); i++ {
		assert.False(t, sessions[i].CreatedAt.After(sessions[i-1].CreatedAt))
	}
}

func TestSessionsCarryNoTokenMaterial(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, Config{})

	_, _, err := m.Issue(ctx, "acct-1", "dev", "ip")
	require.NoError(t, err)

	sessions, err := m.Sessions(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.NotEmpty(t, sessions[0].ID)
	assert.Equal(t, "dev", sessions[0].Device)
}
