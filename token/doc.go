// Package token implements the durable token store on MySQL/MariaDB.
//
// A token row binds an opaque bearer string to a user, with an optional
// absolute expiry (NULL = never expires). Multiple rows per user coexist so
// each device holds its own session. Rows are created on sign-in and session
// start, deleted by sign-out, and swept opportunistically once expired.
//
// Tokens are treated as opaque secrets with no structural meaning; every
// query is keyed by the literal token string.
package token
