// Package sessauth is a session-backed authentication engine: it reconciles
// a fast Redis session cache with a durable SQL token store, enforces
// staleness and account-state policy, and supports soft revocation of a
// user's active sessions from anywhere in the system.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. Each public operation ([Engine.Resolve],
// [Engine.SignIn], [Engine.SignOut], [Engine.InvalidateUser]) runs once per
// inbound request against a per-request [Transport].
//
// # Architecture boundaries
//
// sessauth owns the reconciliation state machine and nothing else. User
// records live behind [CredentialStore], durable token rows behind
// [TokenStore] (MySQL implementation in the token package), and the
// client-side token behind [Transport] (cookie, signed cookie, and bearer
// header implementations in the transport package). The session cache in
// the session package is owned by this module but shared across concurrent
// requests.
//
// # Failure model
//
// Checked authentication failures are [Status] values on the returned
// [Result]; the engine never converts them into errors. Store I/O failures
// are returned as errors, unmasked -- persistence recovery is not this
// layer's concern. Any checked failure during resolution resets the
// session, so a failed resolution never leaves a half-authenticated session
// or a dangling client token behind.
//
// # Consistency
//
// The engine performs no locking of its own and relies on the stores'
// native atomicity for individual calls. The read-then-write staleness
// refresh is deliberately not transactional: two concurrent requests for
// the same token may both reload the user and both rewrite the cache, which
// is tolerated because both converge to the same post-refresh state.
// Revocation via [Engine.InvalidateUser] is lazy and eventually consistent,
// bounded by Config.UpdateGap.
package sessauth
