// Package rate provides the Redis-backed throttle that slows
// credential-stuffing sweeps before they reach the password check.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key
// prefixes:
//   - "al:" for login per-handle
//   - "ali:" for login per-IP
//
// The throttle is distinct from account lockout: lockout is a durable
// per-account decision, the throttle an ephemeral per-source brake.
package rate
