package authcore

import (
	"time"

	"github.com/veloryn/authcore/credential"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is the gate's success payload: the resolved account and
// the raw access token it rode in on.
type AuthResult struct {
	Account *credential.Account
	Token   string
}

// SessionSummary describes one active refresh session for account
// review. It never carries token material.
type SessionSummary struct {
	ID            string
	Device        string
	OriginAddress string
	CreatedAt     time.Time
	LastUsedAt    time.Time
	ExpiresAt     time.Time
}
