package sessauth

import (
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sessauth/sessauth/session"
	"github.com/sessauth/sessauth/token"
)

// Builder assembles an [Engine] from its stores and configuration.
// Construction is allocation-only; no I/O happens until the first Engine
// operation.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	tokens TokenStore
	creds  CredentialStore
	clock  Clock

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the session cache.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDB wires the durable token store onto the given SQL handle using the
// default MySQL implementation. Use WithTokenStore to substitute another
// implementation.
func (b *Builder) WithDB(db *sql.DB) *Builder {
	b.tokens = token.NewStore(db)
	return b
}

// WithTokenStore sets the durable token store.
func (b *Builder) WithTokenStore(store TokenStore) *Builder {
	b.tokens = store
	return b
}

// WithCredentialStore sets the authoritative user lookup backend.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.creds = store
	return b
}

// WithClock overrides the engine's time source. Tests use this to pin
// staleness and expiry decisions.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// Build validates the configuration and wiring and returns the Engine. A
// Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errBuilderUsed
	}
	if err := b.config.validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, ErrMissingRedis
	}
	if b.tokens == nil {
		return nil, ErrMissingTokenStore
	}
	if b.creds == nil {
		return nil, ErrMissingCredentialStore
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	b.built = true
	return &Engine{
		config:   b.config,
		sessions: session.NewStore(b.redis, b.config.Session.RedisPrefix, b.config.Session.CacheTTL),
		tokens:   b.tokens,
		creds:    b.creds,
		clock:    clock,
	}, nil
}
