// Package authcore is an embeddable session/credential lifecycle core:
// short-lived signed access tokens paired with long-lived rotating
// refresh tokens, plus brute-force lockout and a self-expiring
// revocation registry for logout.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder],
// [Config] and value types (TokenPair, AuthResult, SessionSummary).
// Flow orchestration, audit dispatch and metrics live under internal/
// and are never exported directly.
//
// Durable state (accounts, refresh records) lives behind the
// [credential.Store] and [refresh.Store] interfaces; Postgres and
// in-memory implementations ship with the module. Ephemeral state
// (revocation entries, throttle counters) prefers Redis and degrades to
// process-local structures for single-instance deployments.
//
// # The gate
//
// Validate is the hot path, invoked once per protected request. Its
// check order is fixed: token presence, revocation registry, signature,
// expiry, payload, account resolution, lockout. Every denial carries a
// stable machine-readable code via [Code] and an HTTP status via
// [HTTPStatus].
package authcore
