package session

// Snapshot is one session cache entry: an ephemeral projection of the
// authenticated user keyed by the opaque token, plus the unix time of the
// last refresh from the credential store.
//
// A snapshot without user data (HasUser false) is an anonymous but
// session-bearing entry: the session exists, nobody ever authenticated on
// it.
type Snapshot struct {
	// Token is the cache key the snapshot lives under. Set by the Store on
	// load and provisioning.
	Token string

	// UpdatedAt is the unix time of the last credential-store refresh.
	// Zero forces the next resolution to treat the entry as stale.
	UpdatedAt int64

	// HasUser marks the entry as carrying an authenticated user projection.
	HasUser bool

	UserID      int64
	Username    string
	Disabled    bool
	BannedUntil int64 // unix, 0 = no ban
	Groups      []string
	RoleIDs     []int64
	Permissions []string
}
