package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification errors. Each failure mode gets its own sentinel so the
// caller can tell a forged token from a stale one.
var (
	ErrMalformed    = errors.New("jwt: token malformed")
	ErrBadSignature = errors.New("jwt: signature verification failed")
	ErrExpired      = errors.New("jwt: token expired")
	ErrBadPayload   = errors.New("jwt: payload invalid")
)

// Config holds the signing material and issuance parameters.
type Config struct {
	// Secret is the HMAC-SHA256 signing key. Required.
	Secret []byte
	// AccessTTL is the lifetime of issued tokens.
	AccessTTL time.Duration
	// Issuer, when set, is embedded in and required of every token.
	Issuer string

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Manager signs and verifies access tokens with a single shared secret.
type Manager struct {
	config Config
	now    func() time.Time
}

// AccessClaims is the payload carried by every access token.
type AccessClaims struct {
	AccountID string `json:"aid"`
	jwt.RegisteredClaims
}

// NewManager validates the config and returns a ready [Manager].
// A missing secret is a hard configuration error, there is no
// generated-key fallback.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt: signing secret is required")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("jwt: invalid TTL configuration")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{config: cfg, now: now}, nil
}

// Issue creates a signed access token for the account, valid for the
// configured TTL from now. Each token carries a unique jti.
func (m *Manager) Issue(accountID string) (string, error) {
	if accountID == "" {
		return "", errors.New("jwt: empty account id")
	}

	issuedAt := m.now()
	claims := AccessClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.config.AccessTTL)),
			Issuer:    m.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// Parse verifies the token and returns its claims. Checks run in a
// fixed order: structure, then signature, then expiry, then payload.
func (m *Manager) Parse(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrBadPayload
	}
	if claims.AccountID == "" {
		return nil, ErrBadPayload
	}

	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrBadPayload
	}
}
