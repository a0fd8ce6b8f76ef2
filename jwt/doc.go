// Package jwt issues and verifies the short-lived access tokens the
// engine hands out after a successful login or refresh.
//
// Tokens are HMAC-SHA256 signed and carry the account identifier plus a
// unique token ID. Verification separates malformed tokens, bad
// signatures, and expired tokens into distinct errors so callers can
// report each condition precisely.
package jwt
