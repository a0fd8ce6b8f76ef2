package authcore

import (
	"github.com/veloryn/authcore/internal/metrics"
)

// MetricID identifies one engine counter or histogram.
type MetricID = metrics.MetricID

// Metric identifiers exposed in snapshots.
const (
	MetricLoginSuccess         = metrics.MetricLoginSuccess
	MetricLoginFailure         = metrics.MetricLoginFailure
	MetricLoginLocked          = metrics.MetricLoginLocked
	MetricLoginRateLimited     = metrics.MetricLoginRateLimited
	MetricRefreshSuccess       = metrics.MetricRefreshSuccess
	MetricRefreshFailure       = metrics.MetricRefreshFailure
	MetricRefreshReuseDetected = metrics.MetricRefreshReuseDetected
	MetricSessionCreated       = metrics.MetricSessionCreated
	MetricSessionRevoked       = metrics.MetricSessionRevoked
	MetricLogout               = metrics.MetricLogout
	MetricLogoutAll            = metrics.MetricLogoutAll
	MetricTokenRevoked         = metrics.MetricTokenRevoked
	MetricAccountCreated       = metrics.MetricAccountCreated
	MetricAccountDeleted       = metrics.MetricAccountDeleted
	MetricValidateDenied       = metrics.MetricValidateDenied
	MetricValidateLatency      = metrics.MetricValidateLatency
)

// MetricsSnapshot is a point-in-time copy of the engine's counters and
// latency histograms.
type MetricsSnapshot = metrics.Snapshot
