package flows

import (
	"context"

	"github.com/veloryn/authcore/credential"
)

// RunRegister executes account creation. Password policy is checked
// before any storage I/O so weak passwords never cost a round trip.
func RunRegister(ctx context.Context, handle, password string, deps Deps) (*credential.Account, error) {
	deps = deps.withDefaults()
	if deps.CreateAccount == nil || deps.HashPassword == nil || deps.NewAccountID == nil {
		return nil, deps.Errors.EngineNotReady
	}

	if err := credential.ValidateHandleBounds(handle, deps.HandleMinLength, deps.HandleMaxLength); err != nil {
		return nil, deps.Errors.InvalidHandle
	}
	if len(password) < deps.PasswordMinLength {
		return nil, deps.Errors.WeakPassword
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		return nil, deps.Errors.WeakPassword
	}
	password = ""

	account := &credential.Account{
		ID:           deps.NewAccountID(),
		Handle:       handle,
		PasswordHash: hash,
		CreatedAt:    deps.Now(),
	}

	if err := deps.CreateAccount(ctx, account); err != nil {
		deps.EmitAudit(ctx, deps.Events.AccountCreated, false, "", handle, err, nil)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.AccountCreated)
	deps.EmitAudit(ctx, deps.Events.AccountCreated, true, account.ID, handle, nil, nil)
	return account, nil
}
