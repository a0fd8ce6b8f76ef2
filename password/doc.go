// Package password hashes and verifies account passwords with bcrypt.
//
// The hasher enforces a minimum cost factor of 12 and can detect hashes
// produced at a lower cost so callers can transparently re-hash on the
// next successful login.
package password
