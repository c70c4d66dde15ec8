package store

import "errors"

// Common errors for lease store operations.
var (
	// ErrInvalidLeaseDuration is returned when a non-positive lease duration
	// is requested.
	ErrInvalidLeaseDuration = errors.New("lease duration must be > 0")

	// ErrCorruptLeaseRecord is returned when a persisted lease record cannot
	// be decoded.
	ErrCorruptLeaseRecord = errors.New("corrupt lease record")
)
