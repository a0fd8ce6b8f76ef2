// Package refresh manages the long-lived rotating refresh tokens that
// pair with short-lived access tokens.
//
// # Token storage
//
// Tokens are opaque base64url strings with at least 256 bits of
// entropy. The store never holds the raw token: each record carries the
// SHA-256 hex of the token for lookup plus an AES-GCM encrypted copy
// sealed with a per-record nonce, used as a second-factor equality
// check during validation.
//
// # Rotation
//
// A refresh consumes the presented token and issues a replacement.
// Deactivation is first-writer-wins, so two racing refreshes on the
// same token produce exactly one winner. Presenting a token that was
// already retired is treated as a reuse signal and surfaced as
// [ErrReuse] for the caller to log and count.
package refresh
