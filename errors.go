package sessauth

import "errors"

var (
	// ErrUserNotFound must be returned by CredentialStore implementations
	// when no record matches a lookup. The Engine maps it to
	// StatusNonExistingUser during resolution.
	ErrUserNotFound = errors.New("user not found")
	// ErrEngineNotReady is returned when an Engine method is called on a nil
	// or incompletely built engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrMissingRedis is returned by Build when no Redis client was supplied.
	ErrMissingRedis = errors.New("redis client is required")
	// ErrMissingTokenStore is returned by Build when neither a token store
	// nor a database handle was supplied.
	ErrMissingTokenStore = errors.New("token store is required")
	// ErrMissingCredentialStore is returned by Build when no credential
	// store was supplied.
	ErrMissingCredentialStore = errors.New("credential store is required")
)

var errBuilderUsed = errors.New("builder already used")
