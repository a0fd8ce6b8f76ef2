package flows

import (
	"context"
	"errors"
	"strconv"
)

// RunLogout revokes the presented access token and retires the refresh
// token. Both revocations are idempotent; an unknown refresh token is
// not an error from the caller's point of view.
func RunLogout(ctx context.Context, accessToken, refreshToken string, deps Deps) error {
	deps = deps.withDefaults()
	if deps.RevokeAccessToken == nil || deps.RevokeRefreshToken == nil {
		return deps.Errors.EngineNotReady
	}
	if accessToken == "" && refreshToken == "" {
		return deps.Errors.NoToken
	}

	// Best effort: the audit trail wants an account even when the
	// token is past expiry.
	var accountID string
	if deps.ParseAccessToken != nil && accessToken != "" {
		accountID, _ = deps.ParseAccessToken(accessToken)
	}

	if accessToken != "" {
		if err := deps.RevokeAccessToken(ctx, accessToken); err != nil {
			return err
		}
		deps.MetricInc(deps.Metrics.TokenRevoked)
	}

	if refreshToken != "" {
		if err := deps.RevokeRefreshToken(ctx, refreshToken); err != nil &&
			!errors.Is(err, deps.Errors.RefreshNotFound) {
			return err
		}
		deps.MetricInc(deps.Metrics.SessionRevoked)
	}

	deps.MetricInc(deps.Metrics.Logout)
	deps.EmitAudit(ctx, deps.Events.Logout, true, accountID, "", nil, nil)
	return nil
}

// RunLogoutAll revokes the presented access token and every refresh
// record the account holds. Returns how many sessions were retired.
func RunLogoutAll(ctx context.Context, accountID, accessToken string, deps Deps) (int, error) {
	deps = deps.withDefaults()
	if deps.RevokeAccessToken == nil || deps.RevokeAllRefreshTokens == nil {
		return 0, deps.Errors.EngineNotReady
	}

	if accessToken != "" {
		if err := deps.RevokeAccessToken(ctx, accessToken); err != nil {
			return 0, err
		}
		deps.MetricInc(deps.Metrics.TokenRevoked)
	}

	n, err := deps.RevokeAllRefreshTokens(ctx, accountID)
	if err != nil {
		return 0, err
	}

	deps.MetricInc(deps.Metrics.LogoutAll)
	deps.EmitAudit(ctx, deps.Events.LogoutAll, true, accountID, "", nil, func() map[string]string {
		return map[string]string{"sessions": strconv.Itoa(n)}
	})
	return n, nil
}
