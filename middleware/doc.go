// Package middleware adapts the engine's authentication gate to
// net/http. Guard wraps protected handlers; denials come back as a
// structured {"error","code"} JSON body with the status the error
// taxonomy prescribes (401 for auth failures, 423 for lockout).
package middleware
