package authcore

import (
	"errors"
	"time"
)

// Config groups all tunables of the engine. Instances are treated as
// immutable after Build; the builder clones them defensively.
type Config struct {
	JWT        JWTConfig
	Password   PasswordConfig
	Account    AccountConfig
	Lockout    LockoutConfig
	Refresh    RefreshConfig
	Revocation RevocationConfig
	Throttle   ThrottleConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// JWTConfig controls access-token issuance. Secret must come from deployment
// configuration; an empty secret is a build error, never a silent default.
type JWTConfig struct {
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
}

// PasswordConfig controls bcrypt hashing. Cost below 12 is rejected.
type PasswordConfig struct {
	Cost           int
	MinLength      int
	UpgradeOnLogin bool
}

// AccountConfig controls handle validation.
type AccountConfig struct {
	HandleMinLength int
	HandleMaxLength int
}

// LockoutConfig controls the failed-login lockout state machine.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// RefreshConfig controls refresh-token issuance and the per-account session cap.
// EncryptionKey is the AES-256 key sealing the stored token copies.
type RefreshConfig struct {
	TTL           time.Duration
	MaxPerAccount int
	EncryptionKey []byte
}

// RevocationConfig controls the access-token revocation registry. Entries
// self-expire after JWT.AccessTTL, so no TTL is configured here.
type RevocationConfig struct {
	RedisPrefix string
}

// ThrottleConfig controls the optional per-IP login throttle. Disabled by
// default; requires a Redis client when enabled.
type ThrottleConfig struct {
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the reference configuration: 15 minute access tokens,
// 7 day refresh tokens, 5 active sessions per account, lockout after 5
// failures for 15 minutes, bcrypt cost 12.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL: 15 * time.Minute,
			Issuer:    "authcore",
		},
		Password: PasswordConfig{
			Cost:           12,
			MinLength:      6,
			UpgradeOnLogin: true,
		},
		Account: AccountConfig{
			HandleMinLength: 3,
			HandleMaxLength: 30,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  15 * time.Minute,
		},
		Refresh: RefreshConfig{
			TTL:           7 * 24 * time.Hour,
			MaxPerAccount: 5,
		},
		Revocation: RevocationConfig{
			RedisPrefix: "arv",
		},
		Throttle: ThrottleConfig{
			MaxLoginAttempts: 20,
			LoginCooldown:    time.Minute,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations that would weaken the security contract.
func (c Config) Validate() error {
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be positive")
	}
	if c.Password.Cost < 12 {
		return errors.New("password cost factor must be at least 12")
	}
	if c.Password.MinLength < 6 {
		return errors.New("password minimum length must be at least 6")
	}
	if c.Account.HandleMinLength <= 0 || c.Account.HandleMaxLength < c.Account.HandleMinLength {
		return errors.New("invalid handle length bounds")
	}
	if c.Lockout.Threshold <= 0 {
		return errors.New("lockout threshold must be positive")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("lockout duration must be positive")
	}
	if c.Refresh.TTL <= c.JWT.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.Refresh.MaxPerAccount <= 0 {
		return errors.New("refresh MaxPerAccount must be positive")
	}
	if len(c.Refresh.EncryptionKey) != 32 {
		return errors.New("refresh encryption key must be 32 bytes")
	}
	if c.Throttle.EnableIPThrottle {
		if c.Throttle.MaxLoginAttempts <= 0 || c.Throttle.LoginCooldown <= 0 {
			return errors.New("IP throttle requires positive attempts and cooldown")
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.Refresh.EncryptionKey = cloneBytes(cfg.Refresh.EncryptionKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
