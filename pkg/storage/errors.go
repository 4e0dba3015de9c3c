package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint (username, email,
	// post ID) would be violated.
	ErrDuplicate = errors.New("record already exists")
)
