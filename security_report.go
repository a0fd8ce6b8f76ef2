package authcore

import (
	"time"

	"github.com/veloryn/authcore/revocation"
)

// SecurityReport is a point-in-time summary of the engine's security
// posture, intended for startup logs and operational review.
type SecurityReport struct {
	SigningAlgorithm      string
	AccessTTL             time.Duration
	RefreshTTL            time.Duration
	BcryptCost            int
	PasswordMinLength     int
	PasswordUpgradeActive bool
	LockoutThreshold      int
	LockoutDuration       time.Duration
	SessionCapPerAccount  int
	RefreshRotationActive bool
	ReuseDetectionActive  bool
	IPThrottleActive      bool
	AuditTrailActive      bool
	SharedRevocation      bool
}

// SecurityReport summarizes the running configuration. Rotation and
// reuse detection are structural properties of the refresh manager and
// always on.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	_, shared := e.registry.(*revocation.RedisRegistry)

	return SecurityReport{
		SigningAlgorithm:      "HS256",
		AccessTTL:             e.config.JWT.AccessTTL,
		RefreshTTL:            e.config.Refresh.TTL,
		BcryptCost:            e.config.Password.Cost,
		PasswordMinLength:     e.config.Password.MinLength,
		PasswordUpgradeActive: e.config.Password.UpgradeOnLogin,
		LockoutThreshold:      e.config.Lockout.Threshold,
		LockoutDuration:       e.config.Lockout.Duration,
		SessionCapPerAccount:  e.config.Refresh.MaxPerAccount,
		RefreshRotationActive: true,
		ReuseDetectionActive:  true,
		IPThrottleActive:      e.limiter != nil,
		AuditTrailActive:      e.dispatcher != nil,
		SharedRevocation:      shared,
	}
}
