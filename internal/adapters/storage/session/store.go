package session

import (
	"context"
	"errors"
	"time"

	domain "admissions/internal/domain/session"
)

// ErrNotFound is returned when no live session matches the token.
var ErrNotFound = errors.New("session not found")

// Store persists portal sessions keyed by an opaque cookie token.
type Store interface {
	Create(ctx context.Context, sc domain.Context) (token string, err error)
	Get(ctx context.Context, token string, now time.Time) (domain.Context, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
