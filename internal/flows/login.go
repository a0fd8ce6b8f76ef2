package flows

import (
	"context"
	"errors"
)

// RunLogin executes the login flow: throttle, lockout, password check,
// optional hash upgrade, then token issuance.
//
// Unknown handle and wrong password collapse into the same
// InvalidCredentials result so callers cannot probe for handles.
// AccountLocked stays distinguishable: a lock implies prior successful
// logins already proved the account exists.
func RunLogin(ctx context.Context, handle, password string, deps Deps) (*TokenPair, error) {
	deps = deps.withDefaults()
	if deps.GetAccountByHandle == nil ||
		deps.VerifyPassword == nil ||
		deps.RecordFailedLogin == nil ||
		deps.RecordSuccessfulLogin == nil ||
		deps.IssueAccessToken == nil ||
		deps.IssueRefreshToken == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)
	device := deps.DeviceFromContext(ctx)

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, handle, ip); err != nil {
			deps.MetricInc(deps.Metrics.LoginRateLimited)
			deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, "", handle, deps.Errors.LoginRateLimited, nil)
			return nil, deps.Errors.LoginRateLimited
		}
	}

	account, err := deps.GetAccountByHandle(ctx, handle)
	if err != nil {
		if !errors.Is(err, deps.Errors.AccountNotFound) {
			return nil, err
		}
		failLoginRate(ctx, handle, ip, deps)
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", handle, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "unknown_handle"}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	now := deps.Now()
	if account.Locked(now) {
		// Attempts during the lock keep counting. The expiry never
		// moves because the counter is already past the threshold.
		if _, err := deps.RecordFailedLogin(ctx, account.ID, deps.LockoutThreshold, now.Add(deps.LockoutDuration)); err != nil {
			return nil, err
		}
		deps.MetricInc(deps.Metrics.LoginLocked)
		deps.EmitAudit(ctx, deps.Events.LoginLocked, false, account.ID, handle, deps.Errors.AccountLocked, nil)
		return nil, deps.Errors.AccountLocked
	}

	ok, verr := deps.VerifyPassword(password, account.PasswordHash)
	if verr != nil || !ok {
		updated, err := deps.RecordFailedLogin(ctx, account.ID, deps.LockoutThreshold, now.Add(deps.LockoutDuration))
		if err != nil {
			return nil, err
		}
		failLoginRate(ctx, handle, ip, deps)
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, account.ID, handle, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "password_mismatch"}
		})
		if updated.Locked(now) {
			deps.EmitAudit(ctx, deps.Events.LoginLocked, false, account.ID, handle, deps.Errors.AccountLocked, func() map[string]string {
				return map[string]string{"reason": "threshold_reached"}
			})
		}
		return nil, deps.Errors.InvalidCredentials
	}

	if deps.PasswordUpgradeOnLogin && deps.PasswordNeedsUpgrade != nil && deps.UpdatePasswordHash != nil {
		if needs, err := deps.PasswordNeedsUpgrade(account.PasswordHash); err == nil && needs {
			if upgraded, err := deps.HashPassword(password); err == nil {
				if err := deps.UpdatePasswordHash(ctx, account.ID, upgraded); err != nil {
					deps.Warn("password hash upgrade failed", "account", account.ID)
				}
			}
		}
	}
	password = ""

	if err := deps.RecordSuccessfulLogin(ctx, account.ID, now); err != nil {
		return nil, err
	}
	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, handle, ip); err != nil {
			deps.Warn("login throttle reset failed", "handle", handle)
		}
	}

	access, err := deps.IssueAccessToken(account.ID)
	if err != nil {
		return nil, err
	}
	refreshRaw, err := deps.IssueRefreshToken(ctx, account.ID, device, ip)
	if err != nil {
		return nil, err
	}

	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, account.ID, handle, nil, nil)

	return &TokenPair{AccessToken: access, RefreshToken: refreshRaw}, nil
}

// failLoginRate charges one failed attempt against the throttle. Errors
// are logged, not surfaced: the caller already has a failure to return.
func failLoginRate(ctx context.Context, handle, ip string, deps Deps) {
	if deps.IncrementLoginRate == nil {
		return
	}
	if err := deps.IncrementLoginRate(ctx, handle, ip); err != nil &&
		!errors.Is(err, deps.Errors.LoginRateLimited) {
		deps.Warn("login throttle increment failed", "handle", handle)
	}
}
