package sessauth

import (
	"context"
	"slices"
	"time"

	"github.com/sessauth/sessauth/token"
)

// User is the identity record owned by the Engine for the duration of one
// operation. Logged is true only after a successful resolution or sign-in;
// Permissions and RoleIDs are populated before the user is exposed as
// authenticated.
type User struct {
	ID          int64
	Username    string
	Disabled    bool
	BannedUntil *time.Time
	Groups      []string
	RoleIDs     []int64
	Permissions []string

	Logged bool
}

// InGroup reports whether the user belongs to at least one of the given
// groups.
func (u *User) InGroup(groups ...string) bool {
	for _, g := range groups {
		if slices.Contains(u.Groups, g) {
			return true
		}
	}
	return false
}

// HasPermission reports whether the resolved permission set contains perm.
func (u *User) HasPermission(perm string) bool {
	return slices.Contains(u.Permissions, perm)
}

// Banned reports whether the user carries a ban timestamp strictly in the
// future of now.
func (u *User) Banned(now time.Time) bool {
	return u.BannedUntil != nil && u.BannedUntil.After(now)
}

// Result is the outcome of one Engine operation: a terminal status plus the
// (possibly anonymous) user and the token the transport carries afterwards.
// Token is empty when the operation cleared the transport.
type Result struct {
	Status Status
	User   *User
	Token  string
}

// Logged reports whether the operation left an authenticated user behind.
func (r *Result) Logged() bool {
	return r != nil && r.User != nil && r.User.Logged
}

// CredentialStore is the durable, authoritative source of user records.
// Implementations typically sit on the application's user database; the
// Engine never caches across calls, so every method sees live data.
//
// FindUserByID and FindUserByUsername must return [ErrUserNotFound] when no
// record matches. Errors other than ErrUserNotFound propagate to the caller
// unmasked.
type CredentialStore interface {
	FindUserByID(ctx context.Context, id int64) (*User, error)
	FindUserByUsername(ctx context.Context, username string) (*User, error)

	// VerifyPassword checks secret against the stored credential of user.
	// A mismatch is (false, nil), not an error.
	VerifyPassword(ctx context.Context, user *User, secret string) (bool, error)

	// LoadPermissions fills user.Permissions and user.RoleIDs from the
	// role/permission data backing the account.
	LoadPermissions(ctx context.Context, user *User) error
}

// TokenStore is the durable token-row boundary consumed by the Engine.
// [token.Store] is the MySQL implementation; tests substitute in-memory
// fakes.
type TokenStore interface {
	Create(ctx context.Context, t *token.Token) error
	FindByToken(ctx context.Context, value string) (*token.Token, error)
	FindActiveByUser(ctx context.Context, userID int64, now time.Time) ([]token.Token, error)
	ExtendExpiry(ctx context.Context, value string, expiresAt time.Time) error
	Delete(ctx context.Context, value string) error
	DeleteExpiredBefore(ctx context.Context, userID int64, cutoff time.Time) (int64, error)
}

// Transport carries the opaque token between client and engine, one
// instance per inbound request. Implementations live in the transport
// package (cookie, signed cookie, bearer header); anything that can hold a
// string token works.
type Transport interface {
	// Token returns the token presented by the client, if any.
	Token() (string, bool)
	// SetToken instructs the transport to persist token back to the client.
	SetToken(token string)
	// DeleteToken instructs the transport to forget the token.
	DeleteToken()
	// TokenLifetime is the lifetime for newly minted token rows.
	// Zero means token rows never expire.
	TokenLifetime() time.Duration
}

// Clock supplies the current time to the Engine. Injected so staleness and
// expiry decisions are deterministic under test.
type Clock func() time.Time
