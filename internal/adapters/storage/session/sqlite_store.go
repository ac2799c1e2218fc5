package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"admissions/internal/adapters/storage"
	domain "admissions/internal/domain/session"
)

// timeLayout is fixed-width so created_at compares lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// tokenBytes is the entropy of a session token.
const tokenBytes = 32

// SQLiteStore implements Store using SQLite. Only a BLAKE2b-256 digest of
// each token is stored.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// HashToken returns the stored digest of a cookie token.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create stores a session and returns the cookie token.
// PRE: sc.Role is a known role
// POST: A row keyed by HashToken(token) exists
func (s *SQLiteStore) Create(ctx context.Context, sc domain.Context) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO portal_session (token_hash, role, staff_id, staff_name, portal, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		HashToken(token), string(sc.Role), sc.StaffID, sc.StaffName, string(sc.Portal),
		sc.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// Get returns the live session for a token.
// PRE: token came from a cookie (may be forged or stale)
// POST: Returns ErrNotFound for unknown or expired tokens
func (s *SQLiteStore) Get(ctx context.Context, token string, now time.Time) (domain.Context, error) {
	if token == "" {
		return domain.Context{}, ErrNotFound
	}
	var role, portal, created string
	var sc domain.Context
	err := s.db.QueryRowContext(ctx,
		`SELECT role, staff_id, staff_name, portal, created_at FROM portal_session WHERE token_hash = ?`,
		HashToken(token)).Scan(&role, &sc.StaffID, &sc.StaffName, &portal, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Context{}, ErrNotFound
	}
	if err != nil {
		return domain.Context{}, fmt.Errorf("get session: %w", err)
	}
	sc.Role = domain.ParseRole(role)
	sc.Portal = domain.ParsePortal(portal)
	sc.CreatedAt, err = time.Parse(timeLayout, created)
	if err != nil {
		return domain.Context{}, fmt.Errorf("parse session time: %w", err)
	}
	if sc.IsExpired(now) {
		return domain.Context{}, ErrNotFound
	}
	return sc, nil
}

// Delete removes a session (logout). Unknown tokens are not an error.
func (s *SQLiteStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM portal_session WHERE token_hash = ?`, HashToken(token))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges sessions older than the session TTL.
// POST: Returns the number of rows removed
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-domain.TTL).UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM portal_session WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}
