package sessauth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sessauth/sessauth/session"
	"github.com/sessauth/sessauth/token"
)

// Engine reconciles the ephemeral session cache with the durable token
// store and enforces staleness, expiry and account-state policy. It is
// configured once through [Builder.Build] and safe for concurrent use; each
// public operation runs once per inbound request against a per-request
// [Transport].
type Engine struct {
	config   Config
	sessions *session.Store
	tokens   TokenStore
	creds    CredentialStore
	clock    Clock
}

// Sessions exposes the session cache, for callers that want to store
// request-scoped data alongside the authentication projection.
func (e *Engine) Sessions() *session.Store {
	return e.sessions
}

func (e *Engine) now() time.Time {
	return e.clock()
}

// Resolve runs one authentication resolution cycle against the token carried
// by tr and returns its terminal status plus the resolved (possibly
// anonymous) user.
//
// Checked failures -- missing token, vanished token row or user, policy
// denials -- come back as statuses on the Result, never as errors, and each
// of them resets the session: the cache entry is destroyed and the transport
// is told to forget the token. A failed resolution never leaves a
// half-authenticated session behind. The error return is reserved for store
// I/O failures, which this layer does not mask.
func (e *Engine) Resolve(ctx context.Context, tr Transport) (*Result, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	now := e.now()

	tok, ok := tr.Token()
	if !ok || tok == "" {
		return e.reset(ctx, tr, "", StatusNoToken)
	}

	var (
		user          *User
		startSession  bool
		updateSession bool
	)

	has, err := e.sessions.Has(ctx, tok)
	if err != nil {
		return nil, err
	}

	if !has {
		row, err := e.tokens.FindByToken(ctx, tok)
		if errors.Is(err, token.ErrNotFound) {
			return e.reset(ctx, tr, tok, StatusNonExistingToken)
		}
		if err != nil {
			return nil, err
		}
		if row.Expired(now) {
			// An expired row that cleanup has not swept yet. Indistinguishable
			// from a deleted token as far as the client is concerned.
			return e.reset(ctx, tr, tok, StatusNonExistingToken)
		}

		user, err = e.loadUser(ctx, row.UserID)
		if errors.Is(err, ErrUserNotFound) {
			return e.reset(ctx, tr, tok, StatusNonExistingUser)
		}
		if err != nil {
			return nil, err
		}

		startSession = true
	} else {
		snap, err := e.sessions.Get(ctx, tok)
		if err != nil {
			return nil, err
		}

		if !snap.HasUser {
			// Anonymous but session-bearing. No policy checks apply.
			tr.SetToken(tok)
			return &Result{Status: StatusAnonymous, User: &User{}, Token: tok}, nil
		}

		if now.Unix()-snap.UpdatedAt >= int64(e.config.UpdateGap/time.Second) {
			user, err = e.loadUser(ctx, snap.UserID)
			if errors.Is(err, ErrUserNotFound) {
				return e.reset(ctx, tr, tok, StatusNonExistingUser)
			}
			if err != nil {
				return nil, err
			}

			updateSession = true
		} else {
			user = userFromSnapshot(snap)
		}
	}

	if st, ok := e.checkPolicy(user, now); !ok {
		return e.reset(ctx, tr, tok, st)
	}

	user.Logged = true

	if startSession {
		tok, err = e.startSession(ctx, tr, tok, user, now)
		if err != nil {
			return nil, err
		}
	}

	if updateSession {
		if err := e.refreshSession(ctx, tr, tok, user, now); err != nil {
			return nil, err
		}
	}

	tr.SetToken(tok)
	return &Result{Status: StatusAuthenticated, User: user, Token: tok}, nil
}

// loadUser reads the user from the credential store and resolves its
// permission set. Permissions and role ids must be populated before the
// user object can be exposed as authenticated.
func (e *Engine) loadUser(ctx context.Context, id int64) (*User, error) {
	user, err := e.creds.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.creds.LoadPermissions(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// checkPolicy applies the account-state gate in its fixed order: group
// membership, disabled flag, ban timestamp. The first failing check wins.
func (e *Engine) checkPolicy(user *User, now time.Time) (Status, bool) {
	if len(e.config.RequiredGroups) > 0 && !user.InGroup(e.config.RequiredGroups...) {
		return StatusInvalidGroup, false
	}
	if user.Disabled {
		return StatusAccountDisabled, false
	}
	if user.Banned(now) {
		return StatusAccountBanned, false
	}
	return StatusNone, true
}

// startSession rotates the caller onto a fresh session: the prior cache
// entry (if any) moves under a regenerated id, the user projection is
// written into it, and a new token row is minted under the new id. Expired
// rows of the same user are swept opportunistically.
func (e *Engine) startSession(ctx context.Context, tr Transport, oldToken string, user *User, now time.Time) (string, error) {
	var newToken string

	if oldToken != "" {
		has, err := e.sessions.Has(ctx, oldToken)
		if err != nil {
			return "", err
		}
		if has {
			newToken, err = e.sessions.RegenerateID(ctx, oldToken)
			if err != nil {
				return "", err
			}
		}
	}
	if newToken == "" {
		snap, err := e.sessions.Start(ctx)
		if err != nil {
			return "", err
		}
		newToken = snap.Token
	}

	snap := snapshotFromUser(user, now)
	snap.Token = newToken
	if err := e.sessions.Set(ctx, snap); err != nil {
		return "", err
	}

	row := &token.Token{
		Value:     newToken,
		UserID:    user.ID,
		CreatedAt: now,
	}
	if lifetime := tr.TokenLifetime(); lifetime > 0 {
		expiresAt := now.Add(lifetime)
		row.ExpiresAt = &expiresAt
	}
	if err := e.tokens.Create(ctx, row); err != nil {
		return "", err
	}

	// Sweep is best-effort and must not fail the sign-in.
	cutoff := now.Add(-e.config.CleanupGap)
	if _, err := e.tokens.DeleteExpiredBefore(ctx, user.ID, cutoff); err != nil {
		log.Print("sessauth: expired token cleanup failed")
	}

	return newToken, nil
}

// refreshSession rewrites the cached projection after a stale reload and,
// when tokens carry a lifetime, pushes the token row's expiry forward.
func (e *Engine) refreshSession(ctx context.Context, tr Transport, tok string, user *User, now time.Time) error {
	if lifetime := tr.TokenLifetime(); lifetime > 0 {
		if err := e.tokens.ExtendExpiry(ctx, tok, now.Add(lifetime)); err != nil {
			return err
		}
	}

	snap := snapshotFromUser(user, now)
	snap.Token = tok
	return e.sessions.Set(ctx, snap)
}

// reset discards the in-memory user, destroys the session under tok (when
// one exists) and instructs the transport to forget its token. It returns
// the terminal Result for the failing status.
func (e *Engine) reset(ctx context.Context, tr Transport, tok string, st Status) (*Result, error) {
	if tok != "" {
		if err := e.sessions.Destroy(ctx, tok); err != nil {
			return nil, err
		}
	}
	tr.DeleteToken()

	return &Result{Status: st, User: &User{}}, nil
}

func userFromSnapshot(snap *session.Snapshot) *User {
	user := &User{
		ID:          snap.UserID,
		Username:    snap.Username,
		Disabled:    snap.Disabled,
		Groups:      snap.Groups,
		RoleIDs:     snap.RoleIDs,
		Permissions: snap.Permissions,
	}
	if snap.BannedUntil != 0 {
		bannedUntil := time.Unix(snap.BannedUntil, 0)
		user.BannedUntil = &bannedUntil
	}
	return user
}

func snapshotFromUser(user *User, now time.Time) *session.Snapshot {
	snap := &session.Snapshot{
		UpdatedAt:   now.Unix(),
		HasUser:     true,
		UserID:      user.ID,
		Username:    user.Username,
		Disabled:    user.Disabled,
		Groups:      user.Groups,
		RoleIDs:     user.RoleIDs,
		Permissions: user.Permissions,
	}
	if user.BannedUntil != nil {
		snap.BannedUntil = user.BannedUntil.Unix()
	}
	return snap
}
