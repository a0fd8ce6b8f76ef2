package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinCost is the lowest bcrypt cost factor the hasher accepts.
	MinCost = 12

	minPassBytes = 6
)

// Config tunes the bcrypt hasher.
type Config struct {
	// Cost is the bcrypt work factor. Must be at least [MinCost].
	Cost int
}

// Hasher derives and verifies bcrypt password hashes at a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher validates the config and returns a ready [Hasher].
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Cost < MinCost {
		return nil, fmt.Errorf("password cost must be >= %d", MinCost)
	}
	if cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password cost must be <= %d", bcrypt.MaxCost)
	}

	return &Hasher{cost: cfg.Cost}, nil
}

// Hash derives a bcrypt hash of the password.
// Password bytes are used exactly as provided, no Unicode normalization.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minPassBytes {
		return "", fmt.Errorf("password must be at least %d bytes", minPassBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether the password matches the stored hash.
// A malformed hash returns an error; a plain mismatch returns (false, nil).
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, err
}

// NeedsUpgrade reports whether the stored hash was produced at a lower
// cost than the hasher is configured with.
func (h *Hasher) NeedsUpgrade(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, err
	}

	return cost < h.cost, nil
}
