package refresh

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and embedded setups.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*Record
	byHash map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*Record),
		byHash: make(map[string]string),
	}
}

func (s *MemoryStore) Append(_ context.Context, rec *Record, maxPerAccount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxPerAccount > 0 {
		s.evictOldestLocked(rec.AccountID, maxPerAccount-1)
	}

	cp := copyRecord(rec)
	s.byID[cp.ID] = cp
	s.byHash[cp.TokenHash] = cp.ID
	return nil
}

// evictOldestLocked hard-deletes the account's oldest records until at
// most keep remain. Eviction is the one path that removes rows instead
// of retiring them.
func (s *MemoryStore) evictOldestLocked(accountID string, keep int) {
	var owned []*Record
	for _, rec := range s.byID {
		if rec.AccountID == accountID {
			owned = append(owned, rec)
		}
	}

	for len(owned) > keep {
		oldest := owned[0]
		idx := 0
		for i, rec := range owned[1:] {
			if rec.CreatedAt.Before(oldest.CreatedAt) {
				oldest = rec
				idx = i + 1
			}
		}
		delete(s.byID, oldest.ID)
		delete(s.byHash, oldest.TokenHash)
		owned = append(owned[:idx], owned[idx+1:]...)
	}
}

func (s *MemoryStore) FindByHash(_ context.Context, hash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(s.byID[id]), nil
}

func (s *MemoryStore) Deactivate(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if !rec.Active {
		return false, nil
	}
	rec.Active = false
	return true, nil
}

func (s *MemoryStore) DeactivateAll(_ context.Context, accountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, rec := range s.byID {
		if rec.AccountID == accountID && rec.Active {
			rec.Active = false
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) MarkUsed(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.LastUsedAt = at
	return nil
}

func (s *MemoryStore) ListActive(_ context.Context, accountID string, now time.Time) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, rec := range s.byID {
		if rec.AccountID == accountID && rec.Active && !rec.Expired(now) {
			out = append(out, copyRecord(rec))
		}
	}

	// Creation order, newest first.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.After(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func copyRecord(r *Record) *Record {
	cp := *r
	cp.TokenCipher = append([]byte(nil), r.TokenCipher...)
	cp.Nonce = append([]byte(nil), r.Nonce...)
	return &cp
}
