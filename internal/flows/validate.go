package flows

import (
	"context"
	"errors"
)

// RunValidate executes the request-time authentication gate. Checks run
// in a fixed order:
//
//  1. token presence
//  2. revocation registry
//  3. signature, expiry and payload
//  4. account resolution (absence covers deleted-but-still-signed)
//  5. lockout state
//
// On success the resolved account and the raw token come back for the
// caller to attach to its request context.
func RunValidate(ctx context.Context, token string, deps Deps) (*GateResult, error) {
	deps = deps.withDefaults()
	if deps.ParseAccessToken == nil ||
		deps.IsAccessTokenRevoked == nil ||
		deps.GetAccountByID == nil {
		return nil, deps.Errors.EngineNotReady
	}

	start := deps.Now()
	result, err := runValidateChecks(ctx, token, deps)
	deps.ObserveValidateLatency(deps.Now().Sub(start))

	if err != nil {
		deps.MetricInc(deps.Metrics.ValidateDenied)
		return nil, err
	}
	return result, nil
}

func runValidateChecks(ctx context.Context, token string, deps Deps) (*GateResult, error) {
	if token == "" {
		return nil, deps.Errors.NoToken
	}

	revoked, err := deps.IsAccessTokenRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, deps.Errors.TokenRevoked
	}

	accountID, err := deps.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	account, err := deps.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, deps.Errors.AccountNotFound) {
			return nil, deps.Errors.AccountNotFound
		}
		return nil, err
	}

	if account.Locked(deps.Now()) {
		return nil, deps.Errors.AccountLocked
	}

	return &GateResult{Account: account, Token: token}, nil
}
