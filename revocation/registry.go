// Package revocation tracks access tokens invalidated before their
// signed expiry. Entries are keyed by token hash and expire on their
// own once the access-token lifetime has elapsed, so the registry never
// needs to outlive the tokens it blocks.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veloryn/authcore/internal"
)

// ErrUnavailable wraps backend failures so callers can treat them as
// infrastructure faults rather than a revoked or clean verdict.
var ErrUnavailable = errors.New("revocation: backend unavailable")

// Registry is the shared set of revoked access tokens.
type Registry interface {
	// Revoke marks the token invalid for the given remainder of its
	// lifetime.
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	// IsRevoked reports whether the token was revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RedisRegistry stores one Redis key per revoked token, expiring via
// per-entry TTL. Safe for many processes sharing one Redis.
type RedisRegistry struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisRegistry wraps a Redis client. The prefix namespaces the
// revocation keys.
func NewRedisRegistry(redisClient redis.UniversalClient, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = "arv"
	}
	return &RedisRegistry{redis: redisClient, prefix: prefix}
}

func (r *RedisRegistry) key(token string) string {
	return r.prefix + ":revoked:" + internal.HashToken(token)
}

func (r *RedisRegistry) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already past its signed expiry, nothing to block.
		return nil
	}
	if err := r.redis.Set(ctx, r.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.redis.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}
