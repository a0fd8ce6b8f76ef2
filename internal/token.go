package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// refreshTokenRawSize is the entropy of an opaque refresh token in bytes.
// 48 bytes comfortably clears the 256-bit minimum.
const refreshTokenRawSize = 48

// NewRefreshToken returns a cryptographically random opaque token,
// base64url-encoded without padding.
func NewRefreshToken() (string, error) {
	var raw [refreshTokenRawSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashToken returns the hex-encoded SHA-256 of a raw token. This is the
// lookup key for stored refresh records; the raw token itself never touches
// an index.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TokensEqual compares two raw tokens in constant time.
func TokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
