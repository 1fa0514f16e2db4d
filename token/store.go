package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// MySQL driver -- imported for side effect of registering the driver.
	_ "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned by FindByToken when no row matches the token.
var ErrNotFound = errors.New("token not found")

const schema = `CREATE TABLE IF NOT EXISTS auth_tokens (
	token      VARCHAR(64)  NOT NULL,
	user_id    BIGINT       NOT NULL,
	expires_at DATETIME     NULL,
	created_at DATETIME     NOT NULL,
	PRIMARY KEY (token),
	KEY idx_auth_tokens_user (user_id)
)`

// Open opens a MySQL connection pool for the token store and verifies
// connectivity before returning it. The DSN must carry parseTime=true so
// DATETIME columns scan into time.Time.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the token table when it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating auth_tokens table: %w", err)
	}
	return nil
}

// Store implements the durable token boundary with hand-written MySQL
// queries. All SQL lives here -- none leaks out.
type Store struct {
	db *sql.DB
}

// NewStore creates a token store backed by the given DB pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new token row.
func (s *Store) Create(ctx context.Context, t *Token) error {
	query := `INSERT INTO auth_tokens (token, user_id, expires_at, created_at)
	          VALUES (?, ?, ?, ?)`

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query, t.Value, t.UserID, t.ExpiresAt, createdAt)
	if err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}

	return nil
}

// FindByToken retrieves a token row by its literal value.
// Returns ErrNotFound when no row matches.
func (s *Store) FindByToken(ctx context.Context, value string) (*Token, error) {
	query := `SELECT token, user_id, expires_at, created_at
	          FROM auth_tokens WHERE token = ?`

	t := &Token{}
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&t.Value,
		&t.UserID,
		&t.ExpiresAt,
		&t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying token: %w", err)
	}

	return t, nil
}

// FindActiveByUser retrieves every token row for the user that is either not
// yet expired or has no expiry at all. This is the fan-out set for session
// invalidation.
func (s *Store) FindActiveByUser(ctx context.Context, userID int64, now time.Time) ([]Token, error) {
	query := `SELECT token, user_id, expires_at, created_at
	          FROM auth_tokens
	          WHERE user_id = ? AND (expires_at IS NULL OR expires_at >= ?)`

	rows, err := s.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("querying active tokens: %w", err)
	}
	defer rows.Close()

	var tokens []Token
	for rows.Next() {
		var t Token
		if err := rows.Scan(&t.Value, &t.UserID, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating token rows: %w", err)
	}

	return tokens, nil
}

// ExtendExpiry moves the expiry of an existing token row. Extending an
// absent row is a no-op.
func (s *Store) ExtendExpiry(ctx context.Context, value string, expiresAt time.Time) error {
	query := `UPDATE auth_tokens SET expires_at = ? WHERE token = ?`

	if _, err := s.db.ExecContext(ctx, query, expiresAt, value); err != nil {
		return fmt.Errorf("extending token expiry: %w", err)
	}
	return nil
}

// Delete removes a token row by its value. Deleting an absent row is a
// no-op.
func (s *Store) Delete(ctx context.Context, value string) error {
	query := `DELETE FROM auth_tokens WHERE token = ?`

	if _, err := s.db.ExecContext(ctx, query, value); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

// DeleteExpiredBefore removes the user's token rows whose expiry lies
// strictly before cutoff. Rows without expiry are never touched. Returns the
// number of rows removed.
func (s *Store) DeleteExpiredBefore(ctx context.Context, userID int64, cutoff time.Time) (int64, error) {
	query := `DELETE FROM auth_tokens
	          WHERE user_id = ? AND expires_at IS NOT NULL AND expires_at < ?`

	res, err := s.db.ExecContext(ctx, query, userID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted tokens: %w", err)
	}
	return n, nil
}

// DeleteExpired removes every token row, across all users, whose expiry lies
// in the past of now. Intended for periodic cleanup jobs; never touches
// rows without expiry.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM auth_tokens
	          WHERE expires_at IS NOT NULL AND expires_at < ?`

	res, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted tokens: %w", err)
	}
	return n, nil
}
