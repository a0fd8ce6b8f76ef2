package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/veloryn/authcore/credential"
	"github.com/veloryn/authcore/internal/audit"
	"github.com/veloryn/authcore/internal/flows"
	"github.com/veloryn/authcore/internal/metrics"
	"github.com/veloryn/authcore/internal/rate"
	"github.com/veloryn/authcore/jwt"
	"github.com/veloryn/authcore/password"
	"github.com/veloryn/authcore/refresh"
	"github.com/veloryn/authcore/revocation"
)

// Engine is the session/credential lifecycle core. Construct it through
// [New] and its builder; the zero value is not usable.
//
// All methods are safe for concurrent use. Per-account mutations
// (lockout counters, refresh rotation) are serialized by the stores, so
// there is no global lock across accounts.
type Engine struct {
	config     Config
	log        zerolog.Logger
	accounts   credential.Store
	hasher     *password.Hasher
	codec      *jwt.Manager
	sessions   *refresh.Manager
	registry   revocation.Registry
	limiter    *rate.Limiter
	dispatcher *audit.Dispatcher
	metrics    *metrics.Metrics
	deps       flows.Deps
	now        func() time.Time
}

// Register creates a new account. The password is checked against the
// minimum-length policy before hashing; the handle must be unique.
func (e *Engine) Register(ctx context.Context, handle, password string) (*credential.Account, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return flows.RunRegister(ctx, handle, password, e.deps)
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown handles and wrong passwords both come back as
// ErrInvalidCredentials; a locked account is reported as
// ErrAccountLocked regardless of the password's correctness.
func (e *Engine) Login(ctx context.Context, handle, password string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	pair, err := flows.RunLogin(ctx, handle, password, e.deps)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Refresh rotates the presented refresh token and returns a new token
// pair. The old refresh token is consumed; presenting it again reads as
// reuse.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	pair, err := flows.RunRefresh(ctx, refreshToken, e.deps)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

// Validate runs the request-time authentication gate over a raw access
// token and returns the resolved account on success.
func (e *Engine) Validate(ctx context.Context, token string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	result, err := flows.RunValidate(ctx, token, e.deps)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Account: result.Account, Token: result.Token}, nil
}

// Logout revokes the access token for the remainder of its lifetime and
// retires the refresh token. Either argument may be empty, but not both.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return flows.RunLogout(ctx, accessToken, refreshToken, e.deps)
}

// LogoutAll validates the access token, then revokes it together with
// every refresh session the account holds. Returns the number of
// sessions retired.
func (e *Engine) LogoutAll(ctx context.Context, accessToken string) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	result, err := flows.RunValidate(ctx, accessToken, e.deps)
	if err != nil {
		return 0, err
	}
	return flows.RunLogoutAll(ctx, result.Account.ID, accessToken, e.deps)
}

// ListSessions returns the account's active refresh sessions, newest
// first. The access token is validated first.
func (e *Engine) ListSessions(ctx context.Context, accessToken string) ([]SessionSummary, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	result, err := flows.RunValidate(ctx, accessToken, e.deps)
	if err != nil {
		return nil, err
	}

	sessions, err := flows.RunListSessions(ctx, result.Account.ID, e.deps)
	if err != nil {
		return nil, err
	}

	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionSummary{
			ID:            s.ID,
			Device:        s.Device,
			OriginAddress: s.OriginAddress,
			CreatedAt:     s.CreatedAt,
			LastUsedAt:    s.LastUsedAt,
			ExpiresAt:     s.ExpiresAt,
		})
	}
	return out, nil
}

// DeleteAccount validates the access token, revokes the caller's access
// token and every refresh session, then destroys the account record and
// its refresh rows. Outstanding access tokens for the account expire on
// their own within the access TTL.
func (e *Engine) DeleteAccount(ctx context.Context, accessToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	result, err := flows.RunValidate(ctx, accessToken, e.deps)
	if err != nil {
		return err
	}
	if err := e.deps.RevokeAccessToken(ctx, accessToken); err != nil {
		return err
	}
	return flows.RunDeleteAccount(ctx, result.Account.ID, e.deps)
}

// MetricsSnapshot returns a copy of the engine's counters and latency
// histograms. Returns empty maps when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return metrics.Snapshot{}
	}
	return e.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.dispatcher.Dropped()
}

// Close drains and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.dispatcher.Close()
}

// buildDeps wires the flow dependency struct from the engine's
// components. Store and codec errors are mapped to the package sentinel
// errors here, so flows only ever see host-level errors.
func (e *Engine) buildDeps() flows.Deps {
	return flows.Deps{
		LockoutThreshold:       e.config.Lockout.Threshold,
		LockoutDuration:        e.config.Lockout.Duration,
		HandleMinLength:        e.config.Account.HandleMinLength,
		HandleMaxLength:        e.config.Account.HandleMaxLength,
		PasswordMinLength:      e.config.Password.MinLength,
		PasswordUpgradeOnLogin: e.config.Password.UpgradeOnLogin,

		Now:                 e.now,
		NewAccountID:        uuid.NewString,
		ClientIPFromContext: clientIPFromContext,
		DeviceFromContext:   deviceFromContext,

		CreateAccount: func(ctx context.Context, account *credential.Account) error {
			return e.mapCredentialErr(e.accounts.Create(ctx, account))
		},
		GetAccountByHandle: func(ctx context.Context, handle string) (*credential.Account, error) {
			acc, err := e.accounts.FindByHandle(ctx, handle)
			return acc, e.mapCredentialErr(err)
		},
		GetAccountByID: func(ctx context.Context, id string) (*credential.Account, error) {
			acc, err := e.accounts.FindByID(ctx, id)
			return acc, e.mapCredentialErr(err)
		},
		RecordFailedLogin: func(ctx context.Context, id string, threshold int, lockUntil time.Time) (*credential.Account, error) {
			acc, err := e.accounts.RecordFailedLogin(ctx, id, threshold, lockUntil)
			return acc, e.mapCredentialErr(err)
		},
		RecordSuccessfulLogin: func(ctx context.Context, id string, at time.Time) error {
			return e.mapCredentialErr(e.accounts.RecordSuccessfulLogin(ctx, id, at))
		},
		UpdatePasswordHash: func(ctx context.Context, id, hash string) error {
			return e.mapCredentialErr(e.accounts.UpdatePasswordHash(ctx, id, hash))
		},
		DeleteAccount: func(ctx context.Context, id string) error {
			return e.mapCredentialErr(e.accounts.Delete(ctx, id))
		},

		HashPassword: e.hasher.Hash,
		VerifyPassword: func(pw, hash string) (bool, error) {
			return e.hasher.Verify(pw, hash)
		},
		PasswordNeedsUpgrade: e.hasher.NeedsUpgrade,

		IssueAccessToken: e.codec.Issue,
		ParseAccessToken: func(token string) (string, error) {
			claims, err := e.codec.Parse(token)
			if err != nil {
				return "", mapJWTErr(err)
			}
			return claims.AccountID, nil
		},

		IssueRefreshToken: func(ctx context.Context, accountID, device, origin string) (string, error) {
			raw, _, err := e.sessions.Issue(ctx, accountID, device, origin)
			return raw, e.mapRefreshErr(err)
		},
		RotateRefreshToken: func(ctx context.Context, raw, device, origin string) (string, string, error) {
			newRaw, rec, err := e.sessions.Rotate(ctx, raw, device, origin)
			if err != nil {
				return "", "", e.mapRefreshErr(err)
			}
			return newRaw, rec.AccountID, nil
		},
		RevokeRefreshToken: func(ctx context.Context, raw string) error {
			return e.mapRefreshErr(e.sessions.Revoke(ctx, raw))
		},
		RevokeAllRefreshTokens: func(ctx context.Context, accountID string) (int, error) {
			n, err := e.sessions.RevokeAll(ctx, accountID)
			return n, e.mapRefreshErr(err)
		},
		ListSessions: func(ctx context.Context, accountID string) ([]refresh.Session, error) {
			sessions, err := e.sessions.Sessions(ctx, accountID)
			return sessions, e.mapRefreshErr(err)
		},

		RevokeAccessToken: func(ctx context.Context, token string) error {
			// The entry only needs to outlive the token's signed
			// expiry, so it carries the full access TTL.
			if err := e.registry.Revoke(ctx, token, e.config.JWT.AccessTTL); err != nil {
				e.log.Error().Err(err).Msg("revocation registry write failed")
				return fmt.Errorf("%w: %v", ErrStorageFailure, err)
			}
			return nil
		},
		IsAccessTokenRevoked: func(ctx context.Context, token string) (bool, error) {
			revoked, err := e.registry.IsRevoked(ctx, token)
			if err != nil {
				e.log.Error().Err(err).Msg("revocation registry lookup failed")
				return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
			}
			return revoked, nil
		},

		CheckLoginRate:     e.checkLoginRate(),
		IncrementLoginRate: e.incrementLoginRate(),
		ResetLoginRate:     e.resetLoginRate(),

		MetricInc: func(id int) {
			e.metrics.Inc(metrics.MetricID(id))
		},
		ObserveValidateLatency: func(d time.Duration) {
			e.metrics.Observe(metrics.MetricValidateLatency, d)
		},
		EmitAudit: e.emitAudit,
		Warn: func(msg string, kv ...any) {
			e.log.Warn().Fields(kv).Msg(msg)
		},

		Metrics: flows.MetricIDs{
			LoginSuccess:         int(metrics.MetricLoginSuccess),
			LoginFailure:         int(metrics.MetricLoginFailure),
			LoginLocked:          int(metrics.MetricLoginLocked),
			LoginRateLimited:     int(metrics.MetricLoginRateLimited),
			RefreshSuccess:       int(metrics.MetricRefreshSuccess),
			RefreshFailure:       int(metrics.MetricRefreshFailure),
			RefreshReuseDetected: int(metrics.MetricRefreshReuseDetected),
			SessionCreated:       int(metrics.MetricSessionCreated),
			SessionRevoked:       int(metrics.MetricSessionRevoked),
			Logout:               int(metrics.MetricLogout),
			LogoutAll:            int(metrics.MetricLogoutAll),
			TokenRevoked:         int(metrics.MetricTokenRevoked),
			AccountCreated:       int(metrics.MetricAccountCreated),
			AccountDeleted:       int(metrics.MetricAccountDeleted),
			ValidateDenied:       int(metrics.MetricValidateDenied),
		},
		Events: flows.EventNames{
			AccountCreated:   EventAccountCreated,
			AccountDeleted:   EventAccountDeleted,
			LoginSuccess:     EventLoginSuccess,
			LoginFailure:     EventLoginFailure,
			LoginLocked:      EventLoginLocked,
			LoginRateLimited: EventLoginRateLimited,
			RefreshSuccess:   EventRefreshSuccess,
			RefreshFailure:   EventRefreshFailure,
			RefreshReuse:     EventRefreshReuse,
			Logout:           EventLogout,
			LogoutAll:        EventLogoutAll,
			ValidateDenied:   EventValidateDenied,
		},
		Errors: flows.Sentinels{
			EngineNotReady:     ErrEngineNotReady,
			NoToken:            ErrNoToken,
			TokenRevoked:       ErrTokenRevoked,
			InvalidCredentials: ErrInvalidCredentials,
			AccountNotFound:    ErrAccountNotFound,
			AccountLocked:      ErrAccountLocked,
			DuplicateHandle:    ErrDuplicateHandle,
			WeakPassword:       ErrWeakPassword,
			InvalidHandle:      ErrInvalidHandle,
			RefreshNotFound:    ErrRefreshNotFound,
			RefreshExpired:     ErrRefreshExpired,
			RefreshMismatch:    ErrRefreshMismatch,
			RefreshReuse:       ErrRefreshReuse,
			LoginRateLimited:   ErrLoginRateLimited,
			Storage:            ErrStorageFailure,
		},
	}
}

func (e *Engine) checkLoginRate() func(context.Context, string, string) error {
	if e.limiter == nil {
		return nil
	}
	return func(ctx context.Context, handle, ip string) error {
		return e.mapRateErr(e.limiter.CheckLogin(ctx, handle, ip))
	}
}

func (e *Engine) incrementLoginRate() func(context.Context, string, string) error {
	if e.limiter == nil {
		return nil
	}
	return func(ctx context.Context, handle, ip string) error {
		return e.mapRateErr(e.limiter.IncrementLogin(ctx, handle, ip))
	}
}

func (e *Engine) resetLoginRate() func(context.Context, string, string) error {
	if e.limiter == nil {
		return nil
	}
	return func(ctx context.Context, handle, ip string) error {
		return e.mapRateErr(e.limiter.ResetLogin(ctx, handle, ip))
	}
}

func (e *Engine) emitAudit(ctx context.Context, event string, success bool, accountID, handle string, cause error, meta func() map[string]string) {
	if e.dispatcher == nil {
		return
	}

	record := audit.Event{
		Timestamp: e.now(),
		EventType: event,
		AccountID: accountID,
		Handle:    handle,
		IP:        clientIPFromContext(ctx),
		Device:    deviceFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		record.Error = cause.Error()
	}
	if meta != nil {
		record.Metadata = meta()
	}

	e.dispatcher.Emit(ctx, record)
}

func (e *Engine) mapCredentialErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, credential.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, credential.ErrDuplicate):
		return ErrDuplicateHandle
	case errors.Is(err, credential.ErrInvalidHandle):
		return ErrInvalidHandle
	default:
		e.log.Error().Err(err).Msg("credential store failure")
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
}

func (e *Engine) mapRefreshErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, refresh.ErrNotFound):
		return ErrRefreshNotFound
	case errors.Is(err, refresh.ErrExpired):
		return ErrRefreshExpired
	case errors.Is(err, refresh.ErrMismatch):
		return ErrRefreshMismatch
	case errors.Is(err, refresh.ErrReuse):
		return ErrRefreshReuse
	default:
		e.log.Error().Err(err).Msg("refresh store failure")
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
}

func (e *Engine) mapRateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrLoginRateLimited
	default:
		e.log.Error().Err(err).Msg("login throttle failure")
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
}

func mapJWTErr(err error) error {
	switch {
	case errors.Is(err, jwt.ErrMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrBadSignature):
		return ErrTokenBadSignature
	case errors.Is(err, jwt.ErrExpired):
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}
