// Package session implements the Redis-backed session cache consumed by the
// authentication engine.
//
// Each cache entry is keyed by the opaque token and holds a [Snapshot]: a
// serialized projection of the authenticated user plus the unix time of its
// last refresh from the credential store. Entries are encoded with a
// versioned binary codec (see encoder.go) so that schema evolution does not
// silently corrupt cached sessions, and so that the staleness marker sits at
// a fixed offset where [Store.MarkStale] can zero it in place with a single
// Lua SETRANGE.
//
// The cache fails open to anonymous: [Store.Get] on an unknown or corrupt
// token never errors, it provisions a fresh anonymous entry under a new id.
// Transport-level session loss therefore degrades to an anonymous session,
// never to a failure.
package session
