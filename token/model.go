package token

import "time"

// Token is one durable token row: an opaque bearer string bound to a user,
// with an optional absolute expiry.
type Token struct {
	// Value is the opaque token string. It doubles as the session cache key.
	Value string

	UserID int64

	// ExpiresAt is the absolute expiry. Nil means the token never expires.
	ExpiresAt *time.Time

	CreatedAt time.Time
}

// Expired reports whether the token has an expiry in the past of now.
// Never-expiring tokens are never expired.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}
