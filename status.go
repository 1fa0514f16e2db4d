package sessauth

// Status is the terminal outcome of one Engine operation. Every call to
// [Engine.Resolve], [Engine.SignIn], [Engine.ForceSignIn] and
// [Engine.SignOut] produces exactly one Status.
//
// Checked authentication failures are statuses, not errors: callers branch
// on the Status of the returned [Result], while the error return is
// reserved for store I/O failures (Redis, SQL) that this layer does not
// mask.
type Status uint8

const (
	// StatusNone is the zero value and never returned by Engine operations.
	StatusNone Status = iota
	// StatusNoToken means the transport carried no token.
	StatusNoToken
	// StatusNonExistingToken means the token is unknown to both the session
	// cache and the token store.
	StatusNonExistingToken
	// StatusNonExistingUser means the backing user vanished between session
	// creation and use.
	StatusNonExistingUser
	// StatusInvalidGroup means the user belongs to none of the configured
	// required groups.
	StatusInvalidGroup
	// StatusAccountDisabled means the account is disabled.
	StatusAccountDisabled
	// StatusAccountBanned means the account ban timestamp is still in the
	// future.
	StatusAccountBanned
	// StatusAnonymous means a session exists for the token but was never
	// authenticated.
	StatusAnonymous
	// StatusAuthenticated means resolution succeeded.
	StatusAuthenticated
	// StatusSignedIn means an explicit sign-in succeeded.
	StatusSignedIn
	// StatusSignedOut means an explicit sign-out completed.
	StatusSignedOut
	// StatusInvalidUsername means no user matched the sign-in identifier.
	StatusInvalidUsername
	// StatusInvalidPassword means the sign-in secret did not verify.
	StatusInvalidPassword
)

var statusNames = map[Status]string{
	StatusNone:             "none",
	StatusNoToken:          "no_token",
	StatusNonExistingToken: "non_existing_token",
	StatusNonExistingUser:  "non_existing_user",
	StatusInvalidGroup:     "invalid_group",
	StatusAccountDisabled:  "account_disabled",
	StatusAccountBanned:    "account_banned",
	StatusAnonymous:        "anonymous",
	StatusAuthenticated:    "authenticated",
	StatusSignedIn:         "signed_in",
	StatusSignedOut:        "signed_out",
	StatusInvalidUsername:  "invalid_username",
	StatusInvalidPassword:  "invalid_password",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Logged reports whether the status represents an authenticated outcome.
func (s Status) Logged() bool {
	return s == StatusAuthenticated || s == StatusSignedIn
}
