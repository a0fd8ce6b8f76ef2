package revocation

import (
	"context"
	"sync"
	"time"
)

// LocalRegistry is a process-local Registry for single-instance
// deployments and tests. Expired entries are swept lazily on lookup and
// in bulk by Cleanup.
type LocalRegistry struct {
	mu      sync.RWMutex
	revoked map[string]time.Time

	// now overrides the clock in tests.
	now func() time.Time
}

// NewLocalRegistry returns an empty in-memory registry.
func NewLocalRegistry() *LocalRegistry {
	return &LocalRegistry{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *LocalRegistry) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = r.now().Add(ttl)
	return nil
}

func (r *LocalRegistry) IsRevoked(_ context.Context, token string) (bool, error) {
	r.mu.RLock()
	exp, ok := r.revoked[token]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if r.now().After(exp) {
		r.mu.Lock()
		delete(r.revoked, token)
		r.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Cleanup removes entries whose expiry has passed. Call it from a
// periodic goroutine in long-running processes.
func (r *LocalRegistry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for token, exp := range r.revoked {
		if now.After(exp) {
			delete(r.revoked, token)
		}
	}
}
