package formtoken

import (
	"context"
	"fmt"
	"time"

	"admissions/internal/adapters/storage"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Consume marks a token as used.
// PRE: token is non-empty
// POST: Returns ErrAlreadyUsed if the token was consumed before
func (s *SQLiteStore) Consume(ctx context.Context, token, sessionHash string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO form_token (token, session_hash, consumed_at) VALUES (?, ?, ?)
		 ON CONFLICT(token) DO NOTHING`,
		token, sessionHash, now.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("consume form token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume form token: %w", err)
	}
	if n == 0 {
		return ErrAlreadyUsed
	}
	return nil
}

// Release makes a token usable again, so a form re-rendered with errors can
// be resubmitted.
func (s *SQLiteStore) Release(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM form_token WHERE token = ?`, token); err != nil {
		return fmt.Errorf("release form token: %w", err)
	}
	return nil
}

// DeleteBefore purges tokens consumed before cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM form_token WHERE consumed_at < ?`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("purge form tokens: %w", err)
	}
	return res.RowsAffected()
}
