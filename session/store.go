package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures so callers can
// distinguish them from data-level outcomes with errors.Is.
var ErrRedisUnavailable = errors.New("redis unavailable")

const regenerateIDScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local ttl = redis.call("PTTL", KEYS[1])
redis.call("DEL", KEYS[1])
if ttl > 0 then
  redis.call("SET", KEYS[2], data, "PX", ttl)
else
  redis.call("SET", KEYS[2], data)
end
return 1
`

var regenerateIDLua = redis.NewScript(regenerateIDScript)

const markStaleScript = `
local data = redis.call("GET", KEYS[1])
if not data or #data < 10 then
  return 0
end
local flags = string.byte(data, 2)
if flags % 2 == 0 then
  return 0
end
redis.call("SETRANGE", KEYS[1], 2, ARGV[1])
return 1
`

var markStaleLua = redis.NewScript(markStaleScript)

// Store is the Redis-backed session cache. It owns key construction, entry
// TTLs, anonymous provisioning, and the in-place staleness marking used by
// soft revocation.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore creates a session [Store] on the given Redis client. prefix
// namespaces the cache keys; ttl bounds the lifetime of every entry,
// independent of durable token expiry.
func NewStore(redis redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{
		redis:  redis,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *Store) key(token string) string {
	return s.prefix + ":" + token
}

func newSessionID() string {
	return uuid.NewString()
}

// Has reports whether a cache entry exists under the token.
func (s *Store) Has(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Get loads the snapshot stored under the token. An unknown token, or an
// entry the codec cannot read, never produces an error: the stale entry is
// discarded and a fresh anonymous session is provisioned under a new id. The
// caller learns the effective id from Snapshot.Token.
func (s *Store) Get(ctx context.Context, token string) (*Snapshot, error) {
	data, err := s.redis.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return s.Start(ctx)
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	snap, err := Decode(data)
	if err != nil {
		// Unreadable entry, most likely written by an incompatible future
		// schema. Fail open to anonymous rather than surfacing an error.
		if err := s.Destroy(ctx, token); err != nil {
			return nil, err
		}
		return s.Start(ctx)
	}

	snap.Token = token
	return snap, nil
}

// Start provisions a fresh anonymous session under a new id and returns its
// snapshot.
func (s *Store) Start(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Token: newSessionID()}
	if err := s.Set(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Set encodes and writes the snapshot under snap.Token, resetting the cache
// TTL.
func (s *Store) Set(ctx context.Context, snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(snap.Token), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Destroy removes the cache entry under the token. Destroying an absent
// entry is a no-op.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RegenerateID moves the entry stored under token to a freshly generated id,
// preserving its contents and remaining TTL, and returns the new id. When no
// entry exists under token a fresh anonymous session is provisioned instead.
func (s *Store) RegenerateID(ctx context.Context, token string) (string, error) {
	newToken := newSessionID()

	moved, err := regenerateIDLua.Run(ctx, s.redis, []string{s.key(token), s.key(newToken)}).Int64()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if moved == 0 {
		snap, err := s.Start(ctx)
		if err != nil {
			return "", err
		}
		return snap.Token, nil
	}

	return newToken, nil
}

// MarkStale zeroes the UpdatedAt marker of the entry stored under token,
// forcing the next resolution of that session to reload the user from the
// credential store. Entries without user data are left alone. Returns
// whether an entry was marked.
//
// The rewrite happens in place inside Redis (single SETRANGE at a fixed
// offset), so concurrent resolutions of the same session observe either the
// old or the zeroed marker, never a torn write.
func (s *Store) MarkStale(ctx context.Context, token string) (bool, error) {
	zeros := string(make([]byte, 8))

	marked, err := markStaleLua.Run(ctx, s.redis, []string{s.key(token)}, zeros).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return marked == 1, nil
}
