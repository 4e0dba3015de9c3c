package auth

import (
	"context"
	"errors"
)

// Identity represents an authenticated caller.
type Identity struct {
	// UserID is the unique user identifier (required, non-empty).
	UserID string

	// Username is the caller's username, for logging and authorization
	// checks that operate on usernames.
	Username string
}

// UserResolver resolves a verified user ID back to an identity. The
// resolution must exclude credential material; implementations return
// storage.ErrNotFound when the user no longer exists (deleted after the
// token was issued).
type UserResolver interface {
	ResolveUser(ctx context.Context, userID string) (*Identity, error)
}

// Sentinel errors.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)
