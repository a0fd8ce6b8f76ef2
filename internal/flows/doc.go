// Package flows contains the orchestration logic for every engine
// operation: register, login, refresh, validate, logout and account
// deletion.
//
// Each flow is a pure function over a [Deps] struct. The engine injects
// store closures, token primitives, sentinel errors, metric IDs and
// audit event names; the flow owns only the ordering and branching
// rules. This keeps the decision logic testable with plain fakes and
// keeps the engine free of policy.
package flows
