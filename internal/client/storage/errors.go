package storage

import "errors"

// Common client storage errors
var (
	// ErrStoreUnavailable indicates local I/O failure or corruption.
	// It is never used to signal missing data.
	ErrStoreUnavailable = errors.New("local store unavailable")

	// ErrNotFound indicates that the requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrSessionNotFound indicates that the player is not logged in
	ErrSessionNotFound = errors.New("session not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
