package sessauth

import (
	"context"
	"testing"
	"time"
)

func TestSignInSuccess(t *testing.T) {
	creds := newMockCredentialStore(t)
	user := seedUser(t, creds)
	engine, tokens, clk, cleanup := newTestEngine(t, DefaultConfig(), creds)
	defer cleanup()

	tr := &fakeTransport{lifetime: time.Hour}
	res, err := engine.SignIn(context.Background(), tr, user.Username, "correct-horse-battery")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if res.Status != StatusSignedIn {
		t.Fatalf("status = %v, want %v", res.Status, StatusSignedIn)
	}
	if !res.Logged() {
		t.Error("signed-in result does not report logged")
	}
	if res.Token == "" {
		t.Fatal("no token issued")
	}
	if got, ok := tr.Token(); !ok || got != res.Token {
		t.Errorf("transport token = %q, want %q", got, res.Token)
	}

	row, err := tokens.FindByToken(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("token row lookup failed: %v", err)
	}
	if row.UserID != user.ID {
		t.Errorf("row user id = %d, want %d", row.UserID, user.ID)
	}
	if row.ExpiresAt == nil {
		t.Fatal("row has no expiry despite a transport lifetime")
	}
	if want := clk.Now().Add(time.Hour); !row.ExpiresAt.Equal(want) {
		t.Errorf("row expiry = %v, want %v", row.ExpiresAt, want)
	}
}

func TestSignInNeverExpiringToken(t *testing.T) {
	creds := newMockCredentialStore(t)
	user := seedUser(t, creds)
	engine, tokens, _, cleanup := newTestEngine(t, DefaultConfig(), creds)
	defer cleanup()

	tr := &fakeTransport{} // zero lifetime: remember-me style token
	res, err := engine.ForceSignIn(context.Background(), tr, user.Username)
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	row, err := tokens.FindByToken(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("token row lookup failed: %v", err)
	}
	if row.ExpiresAt != nil {
		t.Errorf("row expiry = %v, want none", row.ExpiresAt)
	}
}

func TestSignInUnknownIdentifier(t *testing.T) {
	creds := newMockCredentialStore(t)
	engine, tokens, _, cleanup := newTestEngine(t, DefaultConfig(), creds)
	defer cleanup()

	tr := &fakeTransport{token: "existing-session", present: true, lifetime: time.Hour}
	res, err := engine.SignIn(context.Background(), tr, "nobody", "whatever")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if res.Status != StatusInvalidUsername {
		t.Fatalf("status = %v, want %v", res.Status, StatusInvalidUsername)
	}
	if tokens.count() != 0 {
		t.Errorf("token rows = %d after a failed sign-in, want 0", tokens.count())
	}
	// A failed credential check must not disturb whatever session the caller
	// already holds.
	if tr.deleteCalls != 0 {
		t.Error("failed sign-in dropped the caller's token")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	creds := newMockCredentialStore(t)
	user := seedUser(t, creds)
	engine, tokens, _, cleanup := newTestEngine(t, DefaultConfig(), creds)
	defer cleanup()

	tr := &fakeTransport{lifetime: time.Hour}
	res, err := engine.SignIn(context.Background(), tr, user.Username, "wrong")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if res.Status != StatusInvalidPassword {
		t.Fatalf("status = %v, want %v", res.Status, StatusInvalidPassword)
	}
	if res.Logged() {
		t.Error("failed sign-in reports logged")
	}
	if tokens.count() != 0 {
		t.Errorf("token rows = %d after a failed sign-in, want 0", tokens.count())
	}
}

func TestForceSignInSkipsSecret(t *testing.T) {
	creds := newMockCredentialStore(t)
	user := seedUser(t, creds)
	engine, _, _, cleanup := newTestEngine(t, DefaultConfig(), creds)
	defer cleanup()

	tr := &fakeTransport{lifetime: time.Hour}
	res, err := engine.ForceSignIn(context.Background(), tr, user.Username)
	if err != nil {
		t.Fatalf("force sign-in failed: %v", err)
	}
	if res.Status != StatusSignedIn {
		t.Fatalf("status = %v, want %v", res.Status, StatusSignedIn)
	}
	if res.User.ID != user.ID {
		t.Errorf("user id = %d, want %d", res.User.ID, user.ID)
	}
}

func TestSignInDisabledAccount(t *testing.T) {
	creds := newMockCredentialStore(t)
	user := seedUser(t, creds)
	user.Disabled = true
	engine, tokens, _, cleanup := newTestEngine(t, DefaultConfig(), creds)
	defer cleanup()

	tr := &fakeTransport{lifetime: time.Hour}
	res, err := engine.SignIn(context.Background(), tr, user.Username, "correct-horse-battery")
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if res.Status != StatusAccountDisabled {
		t.Fatalf("status = %v, want %v", res.Status, StatusAccountDisabled)
	}
	if tokens.count() != 0 {
		t.Error("disabled account was issued a token")
	}
}

func TestSignInUpgradesAnonymousSession(t *testing.T) {
	creds := newMockCredentialStore(t)
	user := seedUser(t, creds)
	engine, _, _, cleanup := newTestEngine(t, DefaultConfig(), creds)
	defer cleanup()

	snap, err := engine.Sessions().Start(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	tr := &fakeTransport{token: snap.Token, present: true, lifetime: time.Hour}
	res, err := engine.ForceSignIn(context.Background(), tr, user.Username)
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if res.Status != StatusSignedIn {
		t.Fatalf("status = %v, want %v", res.Status, StatusSignedIn)
	}
	if res.Token == snap.Token {
		t.Error("session id not rotated across the privilege boundary")
	}
	if has, _ := engine.Sessions().Has(context.Background(), snap.Token); has {
		t.Error("pre-sign-in session id still resolves")
	}
}

func TestSignOut(t *testing.T) {
	creds := newMockCredentialStore(t)
	user := seedUser(t, creds)
	engine, tokens, _, cleanup := newTestEngine(t, DefaultConfig(), creds)
	defer cleanup()

	tr := &fakeTransport{lifetime: time.Hour}
	signed, err := engine.ForceSignIn(context.Background(), tr, user.Username)
	if err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	res, err := engine.SignOut(context.Background(), tr)
	if err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	if res.Status != StatusSignedOut {
		t.Fatalf("status = %v, want %v", res.Status, StatusSignedOut)
	}
	if tokens.has(signed.Token) {
		t.Error("token row survived sign-out")
	}
	if has, _ := engine.Sessions().Has(context.Background(), signed.Token); has {
		t.Error("cache entry survived sign-out")
	}
	if _, ok := tr.Token(); ok {
		t.Error("transport still carries a token after sign-out")
	}

	// Replaying the old token must be rejected.
	replay := &fakeTransport{token: signed.Token, present: true, lifetime: time.Hour}
	res, err = engine.Resolve(context.Background(), replay)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Status != StatusNonExistingToken {
		t.Fatalf("replay status = %v, want %v", res.Status, StatusNonExistingToken)
	}
}

func TestSignOutWithoutToken(t *testing.T) {
	creds := newMockCredentialStore(t)
	engine, _, _, cleanup := newTestEngine(t, DefaultConfig(), creds)
	defer cleanup()

	res, err := engine.SignOut(context.Background(), &fakeTransport{})
	if err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	if res.Status != StatusSignedOut {
		t.Fatalf("status = %v, want %v", res.Status, StatusSignedOut)
	}
}
