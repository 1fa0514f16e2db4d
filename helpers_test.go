package sessauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sessauth/sessauth/password"
	"github.com/sessauth/sessauth/token"
)

type fakeTransport struct {
	token    string
	present  bool
	lifetime time.Duration

	setCalls    int
	deleteCalls int
}

func (f *fakeTransport) Token() (string, bool) {
	if !f.present || f.token == "" {
		return "", false
	}
	return f.token, true
}

func (f *fakeTransport) SetToken(token string) {
	f.token = token
	f.present = true
	f.setCalls++
}

func (f *fakeTransport) DeleteToken() {
	f.token = ""
	f.present = false
	f.deleteCalls++
}

func (f *fakeTransport) TokenLifetime() time.Duration {
	return f.lifetime
}

type mockCredentialStore struct {
	users      map[int64]*User
	byUsername map[string]int64
	hashes     map[int64]string
	perms      map[int64][]string
	roleIDs    map[int64][]int64
	hasher     *password.Argon2

	findByIDCalls int
}

func newMockCredentialStore(t *testing.T) *mockCredentialStore {
	t.Helper()

	hasher, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("argon2 init failed: %v", err)
	}

	return &mockCredentialStore{
		users:      map[int64]*User{},
		byUsername: map[string]int64{},
		hashes:     map[int64]string{},
		perms:      map[int64][]string{},
		roleIDs:    map[int64][]int64{},
		hasher:     hasher,
	}
}

func (m *mockCredentialStore) addUser(t *testing.T, u *User, secret string, perms []string, roleIDs []int64) {
	t.Helper()

	hash, err := m.hasher.Hash(secret)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	m.users[u.ID] = u
	m.byUsername[u.Username] = u.ID
	m.hashes[u.ID] = hash
	m.perms[u.ID] = perms
	m.roleIDs[u.ID] = roleIDs
}

func (m *mockCredentialStore) removeUser(id int64) {
	if u, ok := m.users[id]; ok {
		delete(m.byUsername, u.Username)
	}
	delete(m.users, id)
}

func (m *mockCredentialStore) clone(u *User) *User {
	out := *u
	out.Groups = append([]string(nil), u.Groups...)
	out.Logged = false
	out.Permissions = nil
	out.RoleIDs = nil
	return &out
}

func (m *mockCredentialStore) FindUserByID(ctx context.Context, id int64) (*User, error) {
	m.findByIDCalls++
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return m.clone(u), nil
}

func (m *mockCredentialStore) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	id, ok := m.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return m.clone(m.users[id]), nil
}

func (m *mockCredentialStore) VerifyPassword(ctx context.Context, user *User, secret string) (bool, error) {
	hash, ok := m.hashes[user.ID]
	if !ok {
		return false, nil
	}
	return m.hasher.Verify(secret, hash)
}

func (m *mockCredentialStore) LoadPermissions(ctx context.Context, user *User) error {
	user.Permissions = append([]string(nil), m.perms[user.ID]...)
	user.RoleIDs = append([]int64(nil), m.roleIDs[user.ID]...)
	return nil
}

// memTokenStore mirrors the SQL store's filtering semantics in memory.
type memTokenStore struct {
	mu   sync.Mutex
	rows map[string]token.Token
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{rows: map[string]token.Token{}}
}

func (m *memTokenStore) Create(ctx context.Context, t *token.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[t.Value] = *t
	return nil
}

func (m *memTokenStore) FindByToken(ctx context.Context, value string) (*token.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[value]
	if !ok {
		return nil, token.ErrNotFound
	}
	return &row, nil
}

func (m *memTokenStore) FindActiveByUser(ctx context.Context, userID int64, now time.Time) ([]token.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []token.Token
	for _, row := range m.rows {
		if row.UserID != userID {
			continue
		}
		if row.ExpiresAt == nil || !row.ExpiresAt.Before(now) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memTokenStore) ExtendExpiry(ctx context.Context, value string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[value]; ok {
		row.ExpiresAt = &expiresAt
		m.rows[value] = row
	}
	return nil
}

func (m *memTokenStore) Delete(ctx context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, value)
	return nil
}

func (m *memTokenStore) DeleteExpiredBefore(ctx context.Context, userID int64, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for value, row := range m.rows {
		if row.UserID != userID || row.ExpiresAt == nil {
			continue
		}
		if row.ExpiresAt.Before(cutoff) {
			delete(m.rows, value)
			n++
		}
	}
	return n, nil
}

func (m *memTokenStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memTokenStore) has(value string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[value]
	return ok
}

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEngine(t *testing.T, cfg Config, creds *mockCredentialStore) (*Engine, *memTokenStore, *stubClock, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := newMemTokenStore()
	clk := &stubClock{now: time.Unix(1_700_000_000, 0)}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithTokenStore(tokens).
		WithCredentialStore(creds).
		WithClock(clk.Now).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}

	return engine, tokens, clk, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func seedUser(t *testing.T, creds *mockCredentialStore) *User {
	t.Helper()

	u := &User{
		ID:       1,
		Username: "alice",
		Groups:   []string{"users"},
	}
	creds.addUser(t, u, "correct-horse-battery", []string{"posts.read", "posts.write"}, []int64{10, 20})
	return u
}
