// Package formtoken remembers which one-time form tokens were already used.
package formtoken

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyUsed is returned when a form token is submitted a second time.
var ErrAlreadyUsed = errors.New("form already submitted")

// Store records consumed form tokens.
type Store interface {
	Consume(ctx context.Context, token, sessionHash string, now time.Time) error
	Release(ctx context.Context, token string) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
