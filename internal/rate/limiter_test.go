package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, cfg), mr
}

func TestLoginThrottleWindow(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestLimiter(t, Config{
		MaxLoginAttempts: 3,
		LoginCooldown:    time.Minute,
	})

	for i := 0; i < 3; i++ {
		if err := limiter.CheckLogin(ctx, "alice", ""); err != nil {
			t.Fatalf("CheckLogin %d error: %v", i, err)
		}
		if err := limiter.IncrementLogin(ctx, "alice", ""); err != nil {
			t.Fatalf("IncrementLogin %d error: %v", i, err)
		}
	}

	if err := limiter.IncrementLogin(ctx, "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if err := limiter.CheckLogin(ctx, "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	// Other handles are unaffected.
	if err := limiter.CheckLogin(ctx, "bob", ""); err != nil {
		t.Fatalf("CheckLogin for bob error: %v", err)
	}
}

func TestLoginThrottleCooldownExpires(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newTestLimiter(t, Config{
		MaxLoginAttempts: 1,
		LoginCooldown:    time.Minute,
	})

	for i := 0; i < 2; i++ {
		_ = limiter.IncrementLogin(ctx, "alice", "")
	}
	if err := limiter.CheckLogin(ctx, "alice", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := limiter.CheckLogin(ctx, "alice", ""); err != nil {
		t.Fatalf("CheckLogin after cooldown error: %v", err)
	}
}

func TestLoginThrottlePerIP(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestLimiter(t, Config{
		EnableIPThrottle: true,
		MaxLoginAttempts: 2,
		LoginCooldown:    time.Minute,
	})

	// One IP sweeping many handles still hits the IP budget.
	for i, handle := range []string{"alice", "bob", "carol"} {
		err := limiter.IncrementLogin(ctx, handle, "203.0.113.9")
		if i < 2 && err != nil {
			t.Fatalf("IncrementLogin %d error: %v", i, err)
		}
		if i == 2 && !errors.Is(err, ErrRateLimited) {
			t.Fatalf("err = %v, want ErrRateLimited", err)
		}
	}
}

func TestResetLoginClearsCounters(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newTestLimiter(t, Config{
		EnableIPThrottle: true,
		MaxLoginAttempts: 1,
		LoginCooldown:    time.Minute,
	})

	for i := 0; i < 2; i++ {
		_ = limiter.IncrementLogin(ctx, "alice", "203.0.113.9")
	}
	if err := limiter.ResetLogin(ctx, "alice", "203.0.113.9"); err != nil {
		t.Fatalf("ResetLogin error: %v", err)
	}
	if err := limiter.CheckLogin(ctx, "alice", "203.0.113.9"); err != nil {
		t.Fatalf("CheckLogin after reset error: %v", err)
	}
}
