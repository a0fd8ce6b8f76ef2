package flows

import (
	"context"

	"github.com/veloryn/authcore/refresh"
)

// RunDeleteAccount destroys an account in two phases: first every
// refresh session is retired so no new access tokens can be minted,
// then the identity record goes away together with its refresh rows.
// Outstanding access tokens die on their own within the access TTL.
func RunDeleteAccount(ctx context.Context, accountID string, deps Deps) error {
	deps = deps.withDefaults()
	if deps.RevokeAllRefreshTokens == nil || deps.DeleteAccount == nil {
		return deps.Errors.EngineNotReady
	}

	if _, err := deps.RevokeAllRefreshTokens(ctx, accountID); err != nil {
		return err
	}

	if err := deps.DeleteAccount(ctx, accountID); err != nil {
		deps.EmitAudit(ctx, deps.Events.AccountDeleted, false, accountID, "", err, nil)
		return err
	}

	deps.MetricInc(deps.Metrics.AccountDeleted)
	deps.EmitAudit(ctx, deps.Events.AccountDeleted, true, accountID, "", nil, nil)
	return nil
}

// RunListSessions returns the account's active sessions.
func RunListSessions(ctx context.Context, accountID string, deps Deps) ([]refresh.Session, error) {
	deps = deps.withDefaults()
	if deps.ListSessions == nil {
		return nil, deps.Errors.EngineNotReady
	}
	return deps.ListSessions(ctx, accountID)
}
