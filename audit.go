package authcore

import (
	"io"

	"github.com/veloryn/authcore/internal/audit"
)

// AuditEvent is the canonical audit record delivered to sinks.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher. Emit
// must not block; slow sinks should buffer internally.
type AuditSink = audit.Sink

// Audit event names emitted by the engine.
const (
	EventAccountCreated   = "account.created"
	EventAccountDeleted   = "account.deleted"
	EventLoginSuccess     = "login.success"
	EventLoginFailure     = "login.failure"
	EventLoginLocked      = "login.locked"
	EventLoginRateLimited = "login.rate_limited"
	EventRefreshSuccess   = "refresh.success"
	EventRefreshFailure   = "refresh.failure"
	EventRefreshReuse     = "refresh.reuse"
	EventLogout           = "logout"
	EventLogoutAll        = "logout.all"
	EventValidateDenied   = "validate.denied"
)

// NewAuditChannelSink returns a sink that delivers events into a
// buffered channel, for hosts that consume the trail themselves.
func NewAuditChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewAuditJSONWriterSink returns a sink that writes one JSON line per
// event to w.
func NewAuditJSONWriterSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
