package snapshot

import "errors"

var (
	// ErrMissingPath is returned when Open is called without a database path
	ErrMissingPath = errors.New("snapshot store path is required")
	// ErrNilSnapshot is returned when Save is called with a nil snapshot
	ErrNilSnapshot = errors.New("snapshot is nil")
	// ErrMissingURL is returned when Save is called with an empty URL
	ErrMissingURL = errors.New("snapshot url is required")
	// ErrNotFound is returned when no snapshot exists for the URL
	ErrNotFound = errors.New("no snapshot found")
	// ErrSaveFailed is returned when the insert fails at the database level
	ErrSaveFailed = errors.New("snapshot save failed")
)
