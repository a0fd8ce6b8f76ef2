package flows

import (
	"context"
	"errors"
)

// RunRefresh rotates a refresh token and issues a fresh access token.
// The old refresh token is consumed: of two racing calls with the same
// token exactly one wins, the other fails with RefreshNotFound.
// A token that was already retired is a compromise signal and is
// logged, audited and counted separately before the caller sees it.
func RunRefresh(ctx context.Context, refreshToken string, deps Deps) (*TokenPair, error) {
	deps = deps.withDefaults()
	if deps.RotateRefreshToken == nil || deps.IssueAccessToken == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if refreshToken == "" {
		return nil, deps.Errors.NoToken
	}

	ip := deps.ClientIPFromContext(ctx)
	device := deps.DeviceFromContext(ctx)

	newRaw, accountID, err := deps.RotateRefreshToken(ctx, refreshToken, device, ip)
	if err != nil {
		if errors.Is(err, deps.Errors.RefreshReuse) {
			deps.MetricInc(deps.Metrics.RefreshReuseDetected)
			deps.Warn("retired refresh token presented", "ip", ip)
			deps.EmitAudit(ctx, deps.Events.RefreshReuse, false, "", "", err, func() map[string]string {
				return map[string]string{"ip": ip, "device": device}
			})
		}
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshFailure, false, "", "", err, nil)
		return nil, err
	}

	access, err := deps.IssueAccessToken(accountID)
	if err != nil {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.RefreshSuccess)
	deps.EmitAudit(ctx, deps.Events.RefreshSuccess, true, accountID, "", nil, nil)

	return &TokenPair{AccessToken: access, RefreshToken: newRaw}, nil
}
