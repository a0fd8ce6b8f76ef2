package credential

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and embedded setups.
// A single mutex serializes mutations, which gives the per-account
// atomicity guarantee trivially.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*Account
	byHandle map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*Account),
		byHandle: make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byHandle[account.Handle]; ok {
		return ErrDuplicate
	}

	cp := *account
	s.byID[cp.ID] = &cp
	s.byHandle[cp.Handle] = cp.ID
	return nil
}

func (s *MemoryStore) FindByHandle(_ context.Context, handle string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHandle[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAccount(s.byID[id]), nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyAccount(acc), nil
}

func (s *MemoryStore) RecordFailedLogin(_ context.Context, id string, threshold int, lockUntil time.Time) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	acc.FailedLogins++
	if acc.FailedLogins == threshold {
		t := lockUntil
		acc.LockedUntil = &t
	}
	return copyAccount(acc), nil
}

func (s *MemoryStore) RecordSuccessfulLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}

	acc.FailedLogins = 0
	acc.LockedUntil = nil
	t := at
	acc.LastLoginAt = &t
	return nil
}

func (s *MemoryStore) UpdatePasswordHash(_ context.Context, id string, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	acc.PasswordHash = hash
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byHandle, acc.Handle)
	delete(s.byID, id)
	return nil
}

func copyAccount(a *Account) *Account {
	cp := *a
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		cp.LockedUntil = &t
	}
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}
