// Package credential owns account identity records: handle, password
// hash, failed-login counter and lock expiry. All mutation goes through
// a Store implementation so lockout accounting stays atomic per
// account.
package credential
