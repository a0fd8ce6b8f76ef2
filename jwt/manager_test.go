package jwt

import (
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.Secret == nil {
		cfg.Secret = testSecret
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return m
}

func TestIssueAndParse(t *testing.T) {
	m := newTestManager(t, Config{Issuer: "authcore-test"})

	token, err := m.Issue("acct-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.AccountID != "acct-1" {
		t.Fatalf("AccountID = %q, want acct-1", claims.AccountID)
	}
	if claims.ID == "" {
		t.Fatal("expected a non-empty jti")
	}
}

func TestParseMalformed(t *testing.T) {
	m := newTestManager(t, Config{})

	if _, err := m.Parse("not.a.jwt"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	if _, err := m.Parse(""); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestParseBadSignature(t *testing.T) {
	issuer := newTestManager(t, Config{})
	verifier := newTestManager(t, Config{Secret: []byte("ffffffffffffffffffffffffffffffff")})

	token, err := issuer.Issue("acct-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := verifier.Parse(token); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
}

func TestParseExpired(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := issued

	m := newTestManager(t, Config{
		AccessTTL: 15 * time.Minute,
		Now:       func() time.Time { return clock },
	})

	token, err := m.Issue("acct-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	clock = issued.Add(16 * time.Minute)
	if _, err := m.Parse(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}

	clock = issued.Add(14 * time.Minute)
	if _, err := m.Parse(token); err != nil {
		t.Fatalf("Parse before expiry error: %v", err)
	}
}

func TestParseWrongIssuer(t *testing.T) {
	issuer := newTestManager(t, Config{Issuer: "other-service"})
	verifier := newTestManager(t, Config{Issuer: "authcore"})

	token, err := issuer.Issue("acct-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := verifier.Parse(token); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("err = %v, want ErrBadPayload", err)
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(Config{AccessTTL: time.Minute}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}
