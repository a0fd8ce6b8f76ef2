// Package audit implements async event dispatching for security-relevant
// operations: logins, lockouts, token rotation, reuse detection, logout,
// account lifecycle.
//
// [Sink] is the consumer interface (channel, JSON writer, no-op);
// [Dispatcher] is a buffered async relay with drop-if-full or block-if-full
// semantics. The package owns buffering and delivery only; deciding which
// events to emit belongs to the Engine.
package audit
