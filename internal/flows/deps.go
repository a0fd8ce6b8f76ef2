package flows

import (
	"context"
	"time"

	"github.com/veloryn/authcore/credential"
	"github.com/veloryn/authcore/refresh"
)

// TokenPair is the flow-level login/refresh response shape.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// GateResult is the flow-level validation success payload.
type GateResult struct {
	Account *credential.Account
	Token   string
}

// MetricIDs carries the metric identifiers flows increment.
type MetricIDs struct {
	LoginSuccess         int
	LoginFailure         int
	LoginLocked          int
	LoginRateLimited     int
	RefreshSuccess       int
	RefreshFailure       int
	RefreshReuseDetected int
	SessionCreated       int
	SessionRevoked       int
	Logout               int
	LogoutAll            int
	TokenRevoked         int
	AccountCreated       int
	AccountDeleted       int
	ValidateDenied       int
}

// EventNames carries the audit event names flows emit.
type EventNames struct {
	AccountCreated   string
	AccountDeleted   string
	LoginSuccess     string
	LoginFailure     string
	LoginLocked      string
	LoginRateLimited string
	RefreshSuccess   string
	RefreshFailure   string
	RefreshReuse     string
	Logout           string
	LogoutAll        string
	ValidateDenied   string
}

// Sentinels carries the host-level sentinel errors flows return and
// branch on. Injected store closures are expected to return these
// already mapped.
type Sentinels struct {
	EngineNotReady     error
	NoToken            error
	TokenRevoked       error
	InvalidCredentials error
	AccountNotFound    error
	AccountLocked      error
	DuplicateHandle    error
	WeakPassword       error
	InvalidHandle      error
	RefreshNotFound    error
	RefreshExpired     error
	RefreshMismatch    error
	RefreshReuse       error
	LoginRateLimited   error
	Storage            error
}

// Deps captures every dependency the flows need. The engine builds one
// Deps value at construction time and shares it across requests.
type Deps struct {
	LockoutThreshold       int
	LockoutDuration        time.Duration
	HandleMinLength        int
	HandleMaxLength        int
	PasswordMinLength      int
	PasswordUpgradeOnLogin bool

	Now                 func() time.Time
	NewAccountID        func() string
	ClientIPFromContext func(context.Context) string
	DeviceFromContext   func(context.Context) string

	CreateAccount         func(context.Context, *credential.Account) error
	GetAccountByHandle    func(context.Context, string) (*credential.Account, error)
	GetAccountByID        func(context.Context, string) (*credential.Account, error)
	RecordFailedLogin     func(ctx context.Context, id string, threshold int, lockUntil time.Time) (*credential.Account, error)
	RecordSuccessfulLogin func(ctx context.Context, id string, at time.Time) error
	UpdatePasswordHash    func(ctx context.Context, id, hash string) error
	DeleteAccount         func(context.Context, string) error

	HashPassword         func(string) (string, error)
	VerifyPassword       func(password, hash string) (bool, error)
	PasswordNeedsUpgrade func(hash string) (bool, error)

	IssueAccessToken func(accountID string) (string, error)
	ParseAccessToken func(token string) (accountID string, err error)

	IssueRefreshToken      func(ctx context.Context, accountID, device, origin string) (string, error)
	RotateRefreshToken     func(ctx context.Context, raw, device, origin string) (newRaw, accountID string, err error)
	RevokeRefreshToken     func(context.Context, string) error
	RevokeAllRefreshTokens func(context.Context, string) (int, error)
	ListSessions           func(context.Context, string) ([]refresh.Session, error)

	RevokeAccessToken    func(context.Context, string) error
	IsAccessTokenRevoked func(context.Context, string) (bool, error)

	CheckLoginRate     func(ctx context.Context, handle, ip string) error
	IncrementLoginRate func(ctx context.Context, handle, ip string) error
	ResetLoginRate     func(ctx context.Context, handle, ip string) error

	MetricInc              func(int)
	ObserveValidateLatency func(time.Duration)
	EmitAudit              func(ctx context.Context, event string, success bool, accountID, handle string, err error, meta func() map[string]string)
	Warn                   func(string, ...any)

	Metrics MetricIDs
	Events  EventNames
	Errors  Sentinels
}

// withDefaults fills the optional observer hooks so flows can call them
// unconditionally.
func (deps Deps) withDefaults() Deps {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.ObserveValidateLatency == nil {
		deps.ObserveValidateLatency = func(time.Duration) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.DeviceFromContext == nil {
		deps.DeviceFromContext = func(context.Context) string { return "" }
	}
	return deps
}
