package sessauth

import (
	"errors"
	"time"
)

// Config defines the policy knobs of the authentication engine.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	// UpdateGap is how old a cached session snapshot may grow before
	// Resolve refreshes it from the credential store. Default one hour.
	UpdateGap time.Duration

	// CleanupGap is the horizon for the opportunistic expired-token sweep
	// performed on session start: rows whose expiry lies further than
	// CleanupGap in the past are deleted. Rows without expiry are never
	// touched. Kept separate from UpdateGap so staleness policy and row
	// hygiene can be tuned independently. Default one hour.
	CleanupGap time.Duration

	// RequiredGroups restricts authentication to users belonging to at
	// least one of the listed groups. Empty means no restriction.
	RequiredGroups []string

	Session SessionConfig
}

// SessionConfig controls the Redis session cache.
type SessionConfig struct {
	// RedisPrefix namespaces all session cache keys. Default "sa".
	RedisPrefix string

	// CacheTTL bounds the lifetime of a cache entry, independent of token
	// expiry. Default 24h.
	CacheTTL time.Duration
}

// DefaultConfig returns the configuration used when the Builder is given
// none.
func DefaultConfig() Config {
	return Config{
		UpdateGap:  time.Hour,
		CleanupGap: time.Hour,
		Session: SessionConfig{
			RedisPrefix: "sa",
			CacheTTL:    24 * time.Hour,
		},
	}
}

func (c Config) validate() error {
	if c.UpdateGap <= 0 {
		return errors.New("UpdateGap must be positive")
	}
	if c.CleanupGap <= 0 {
		return errors.New("CleanupGap must be positive")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session.RedisPrefix must not be empty")
	}
	if c.Session.CacheTTL <= 0 {
		return errors.New("Session.CacheTTL must be positive")
	}
	return nil
}
