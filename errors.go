package authcore

import (
	"errors"
	"net/http"
)

var (
	// ErrEngineNotReady is returned when an Engine method is called before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrNoToken is returned when a protected request carries no bearer token.
	ErrNoToken = errors.New("missing bearer token")
	// ErrTokenMalformed is returned when an access token cannot be decoded.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenBadSignature is returned when an access token fails signature verification.
	ErrTokenBadSignature = errors.New("token signature invalid")
	// ErrTokenExpired is returned when an otherwise valid access token has expired.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is returned when an access token was revoked before its expiry.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrInvalidCredentials is returned on login for unknown handles and wrong
	// passwords alike, so handles cannot be enumerated through the login endpoint.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound is returned when a signed token references a deleted account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountLocked is returned while an account is inside its lockout window.
	ErrAccountLocked = errors.New("account locked")
	// ErrDuplicateHandle is returned when registering a handle that is already taken.
	ErrDuplicateHandle = errors.New("handle already in use")
	// ErrWeakPassword is returned when a password fails the minimum-length policy.
	ErrWeakPassword = errors.New("password too weak")
	// ErrInvalidHandle is returned when a handle is outside the allowed length range.
	ErrInvalidHandle = errors.New("invalid handle")
	// ErrRefreshNotFound is returned when no usable refresh record matches the token.
	ErrRefreshNotFound = errors.New("refresh token not found")
	// ErrRefreshExpired is returned when the matching refresh record has expired.
	ErrRefreshExpired = errors.New("refresh token expired")
	// ErrRefreshMismatch is returned when the stored encrypted copy does not match
	// the presented token byte for byte.
	ErrRefreshMismatch = errors.New("refresh token mismatch")
	// ErrRefreshReuse is returned when a retired refresh token is presented again.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrLoginRateLimited is returned when the optional per-IP login throttle trips.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrStorageFailure wraps infrastructure faults from the credential or
	// refresh stores. Callers receive it without internal detail.
	ErrStorageFailure = errors.New("storage failure")
)

// Code maps an engine error to the stable machine-readable code surfaced in
// middleware responses. Unknown errors map to INTERNAL.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return "NO_TOKEN"
	case errors.Is(err, ErrTokenRevoked):
		return "TOKEN_REVOKED"
	case errors.Is(err, ErrTokenExpired):
		return "TOKEN_EXPIRED"
	case errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrTokenBadSignature):
		return "INVALID_TOKEN"
	case errors.Is(err, ErrAccountLocked):
		return "ACCOUNT_LOCKED"
	case errors.Is(err, ErrAccountNotFound):
		return "ACCOUNT_NOT_FOUND"
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrDuplicateHandle):
		return "DUPLICATE_HANDLE"
	case errors.Is(err, ErrWeakPassword):
		return "WEAK_PASSWORD"
	case errors.Is(err, ErrInvalidHandle):
		return "INVALID_HANDLE"
	case errors.Is(err, ErrRefreshNotFound), errors.Is(err, ErrRefreshReuse):
		return "REFRESH_NOT_FOUND"
	case errors.Is(err, ErrRefreshExpired):
		return "REFRESH_EXPIRED"
	case errors.Is(err, ErrRefreshMismatch):
		return "REFRESH_MISMATCH"
	case errors.Is(err, ErrLoginRateLimited):
		return "RATE_LIMITED"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps an engine error to the status the middleware contract
// prescribes: 401 for authentication failures, 423 for lockout, 409 for
// registration conflicts, 429 for throttling, 500 for everything else.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAccountLocked):
		return http.StatusLocked
	case errors.Is(err, ErrDuplicateHandle):
		return http.StatusConflict
	case errors.Is(err, ErrWeakPassword), errors.Is(err, ErrInvalidHandle):
		return http.StatusBadRequest
	case errors.Is(err, ErrLoginRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNoToken),
		errors.Is(err, ErrTokenRevoked),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenBadSignature),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrRefreshNotFound),
		errors.Is(err, ErrRefreshExpired),
		errors.Is(err, ErrRefreshMismatch),
		errors.Is(err, ErrRefreshReuse):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
