package sessauth

import (
	"context"
	"errors"
)

// SignIn authenticates the identifier/secret pair against the credential
// store and, on success, rotates the caller onto a fresh session with a
// newly minted token row.
//
// An unknown identifier yields StatusInvalidUsername and a failed secret
// yields StatusInvalidPassword; neither touches any session the caller
// already holds. Policy denials (group, disabled, banned) reset the session
// like Resolve does -- a disabled or banned account never reaches
// StatusSignedIn, even with valid credentials.
func (e *Engine) SignIn(ctx context.Context, tr Transport, identifier, secret string) (*Result, error) {
	return e.signIn(ctx, tr, identifier, secret, false)
}

// ForceSignIn signs the identifier in without verifying its secret. Intended
// for impersonation and post-registration auto-login flows where the caller
// has already established trust.
func (e *Engine) ForceSignIn(ctx context.Context, tr Transport, identifier string) (*Result, error) {
	return e.signIn(ctx, tr, identifier, "", true)
}

func (e *Engine) signIn(ctx context.Context, tr Transport, identifier, secret string, force bool) (*Result, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	now := e.now()

	user, err := e.creds.FindUserByUsername(ctx, identifier)
	if errors.Is(err, ErrUserNotFound) {
		return &Result{Status: StatusInvalidUsername, User: &User{}}, nil
	}
	if err != nil {
		return nil, err
	}

	if !force {
		ok, err := e.creds.VerifyPassword(ctx, user, secret)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &Result{Status: StatusInvalidPassword, User: &User{}}, nil
		}
	}
	secret = ""

	if err := e.creds.LoadPermissions(ctx, user); err != nil {
		return nil, err
	}

	tok, _ := tr.Token()
	if st, ok := e.checkPolicy(user, now); !ok {
		return e.reset(ctx, tr, tok, st)
	}

	user.Logged = true

	newToken, err := e.startSession(ctx, tr, tok, user, now)
	if err != nil {
		return nil, err
	}

	tr.SetToken(newToken)
	return &Result{Status: StatusSignedIn, User: user, Token: newToken}, nil
}

// SignOut destroys the current session, deletes its token row and instructs
// the transport to forget the token. Signing out without a token is a no-op
// that still reports StatusSignedOut.
func (e *Engine) SignOut(ctx context.Context, tr Transport) (*Result, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	tok, ok := tr.Token()
	if ok && tok != "" {
		if err := e.sessions.Destroy(ctx, tok); err != nil {
			return nil, err
		}
		if err := e.tokens.Delete(ctx, tok); err != nil {
			return nil, err
		}
	}
	tr.DeleteToken()

	return &Result{Status: StatusSignedOut, User: &User{}}, nil
}
