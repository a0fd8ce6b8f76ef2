package credential

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(id, handle string) *Account {
	return &Account{
		ID:           id,
		Handle:       handle,
		PasswordHash: "$2a$12$fakefakefakefakefakefake",
		CreatedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreCreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, newTestAccount("id-1", "alice")))

	byHandle, err := store.FindByHandle(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "id-1", byHandle.ID)

	byID, err := store.FindByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Handle)

	_, err = store.FindByHandle(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDuplicateHandle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, newTestAccount("id-1", "alice")))
	err := store.Create(ctx, newTestAccount("id-2", "alice"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRecordFailedLoginLocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newTestAccount("id-1", "alice")))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lockUntil := now.Add(15 * time.Minute)

	for i := 1; i <= 4; i++ {
		acc, err := store.RecordFailedLogin(ctx, "id-1", 5, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, i, acc.FailedLogins)
		assert.Nil(t, acc.LockedUntil)
	}

	acc, err := store.RecordFailedLogin(ctx, "id-1", 5, lockUntil)
	require.NoError(t, err)
	assert.Equal(t, 5, acc.FailedLogins)
	require.NotNil(t, acc.LockedUntil)
	assert.True(t, acc.Locked(now))
	assert.False(t, acc.Locked(lockUntil))
}

func TestFailuresWhileLockedDoNotExtendExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newTestAccount("id-1", "alice")))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	firstExpiry := now.Add(15 * time.Minute)

	for i := 0; i < 5; i++ {
		_, err := store.RecordFailedLogin(ctx, "id-1", 5, firstExpiry)
		require.NoError(t, err)
	}

	// Two more failures with later would-be expiries.
	later := now.Add(30 * time.Minute)
	acc, err := store.RecordFailedLogin(ctx, "id-1", 5, later)
	require.NoError(t, err)
	acc, err = store.RecordFailedLogin(ctx, "id-1", 5, later)
	require.NoError(t, err)

	assert.Equal(t, 7, acc.FailedLogins)
	require.NotNil(t, acc.LockedUntil)
	assert.Equal(t, firstExpiry, *acc.LockedUntil)
}

func TestRecordSuccessfulLoginResetsLockout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newTestAccount("id-1", "alice")))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.RecordFailedLogin(ctx, "id-1", 5, now.Add(15*time.Minute))
		require.NoError(t, err)
	}

	loginAt := now.Add(time.Hour)
	require.NoError(t, store.RecordSuccessfulLogin(ctx, "id-1", loginAt))

	acc, err := store.FindByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Zero(t, acc.FailedLogins)
	assert.Nil(t, acc.LockedUntil)
	require.NotNil(t, acc.LastLoginAt)
	assert.Equal(t, loginAt, *acc.LastLoginAt)
}

func TestConcurrentFailedLoginsLoseNoIncrement(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newTestAccount("id-1", "alice")))

	lockUntil := time.Now().Add(15 * time.Minute)
	const n = 32

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.RecordFailedLogin(ctx, "id-1", 5, lockUntil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	acc, err := store.FindByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, n, acc.FailedLogins)
	require.NotNil(t, acc.LockedUntil)
}

func TestValidateHandle(t *testing.T) {
	assert.NoError(t, ValidateHandle("alice"))
	assert.NoError(t, ValidateHandle("a_b-c.d42"))

	assert.ErrorIs(t, ValidateHandle("ab"), ErrInvalidHandle)
	assert.ErrorIs(t, ValidateHandle(""), ErrInvalidHandle)
	assert.ErrorIs(t, ValidateHandle("has space"), ErrInvalidHandle)
	assert.ErrorIs(t, ValidateHandle("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), ErrInvalidHandle)
}

func TestValidateHandleBounds(t *testing.T) {
	assert.NoError(t, ValidateHandleBounds("alice", 5, 10))
	assert.ErrorIs(t, ValidateHandleBounds("abcd", 5, 10), ErrInvalidHandle)
	assert.ErrorIs(t, ValidateHandleBounds("abcdefghijk", 5, 10), ErrInvalidHandle)

	// Non-positive bounds fall back to the 3/30 defaults.
	assert.NoError(t, ValidateHandleBounds("bob", 0, 0))
	assert.ErrorIs(t, ValidateHandleBounds("ab", 0, 0), ErrInvalidHandle)
}

func TestDeleteRemovesAccount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newTestAccount("id-1", "alice")))

	require.NoError(t, store.Delete(ctx, "id-1"))

	_, err := store.FindByID(ctx, "id-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.FindByHandle(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "id-1"), ErrNotFound)
}
