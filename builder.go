package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/veloryn/authcore/credential"
	"github.com/veloryn/authcore/internal/audit"
	"github.com/veloryn/authcore/internal/metrics"
	"github.com/veloryn/authcore/internal/rate"
	"github.com/veloryn/authcore/jwt"
	"github.com/veloryn/authcore/password"
	"github.com/veloryn/authcore/refresh"
	"github.com/veloryn/authcore/revocation"
)

// Builder assembles an [Engine]. Configure it fluently, then call
// Build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	accountStore credential.Store
	refreshStore refresh.Store
	registry     revocation.Registry
	auditSink    AuditSink
	logger       *zerolog.Logger
	now          func() time.Time

	built bool
}

// New starts a builder with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration. The config is cloned so
// later mutation by the caller has no effect.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the revocation registry
// and, when enabled, the login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAccountStore supplies the credential store. Required.
func (b *Builder) WithAccountStore(store credential.Store) *Builder {
	b.accountStore = store
	return b
}

// WithRefreshStore supplies the refresh record store. Required.
func (b *Builder) WithRefreshStore(store refresh.Store) *Builder {
	b.refreshStore = store
	return b
}

// WithRevocationRegistry overrides the revocation registry. Without
// this the builder derives one from the Redis client, or falls back to
// a process-local registry for single-instance deployments.
func (b *Builder) WithRevocationRegistry(registry revocation.Registry) *Builder {
	b.registry = registry
	return b
}

// WithAuditSink enables the audit trail and routes events to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithLogger overrides the engine logger. Defaults to the global
// zerolog logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithClock overrides the engine clock, for tests that simulate the
// passage of time.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and assembles the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.accountStore == nil {
		return nil, errors.New("account store is required")
	}
	if b.refreshStore == nil {
		return nil, errors.New("refresh store is required")
	}
	if b.config.Throttle.EnableIPThrottle && b.redis == nil {
		return nil, errors.New("IP throttle requires a Redis client")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	logger := zlog.Logger
	if b.logger != nil {
		logger = *b.logger
	}
	logger = logger.With().Str("component", "authcore").Logger()

	hasher, err := password.NewHasher(password.Config{Cost: b.config.Password.Cost})
	if err != nil {
		return nil, err
	}

	codec, err := jwt.NewManager(jwt.Config{
		Secret:    b.config.JWT.Secret,
		AccessTTL: b.config.JWT.AccessTTL,
		Issuer:    b.config.JWT.Issuer,
		Now:       now,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := refresh.NewManager(b.refreshStore, refresh.Config{
		TTL:           b.config.Refresh.TTL,
		MaxPerAccount: b.config.Refresh.MaxPerAccount,
		EncryptionKey: b.config.Refresh.EncryptionKey,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	registry := b.registry
	if registry == nil {
		if b.redis != nil {
			registry = revocation.NewRedisRegistry(b.redis, b.config.Revocation.RedisPrefix)
		} else {
			logger.Warn().Msg("no Redis client, using process-local revocation registry")
			registry = revocation.NewLocalRegistry()
		}
	}

	var limiter *rate.Limiter
	if b.config.Throttle.EnableIPThrottle {
		limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: true,
			MaxLoginAttempts: b.config.Throttle.MaxLoginAttempts,
			LoginCooldown:    b.config.Throttle.LoginCooldown,
		})
	}

	engine := &Engine{
		config:   b.config,
		log:      logger,
		accounts: b.accountStore,
		hasher:   hasher,
		codec:    codec,
		sessions: sessions,
		registry: registry,
		limiter:  limiter,
		dispatcher: audit.NewDispatcher(audit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.auditSink),
		metrics: metrics.New(metrics.Config{
			Enabled:       b.config.Metrics.Enabled,
			EnableLatency: b.config.Metrics.EnableLatencyHistograms,
		}),
		now: now,
	}
	engine.deps = engine.buildDeps()

	b.built = true
	return engine, nil
}
