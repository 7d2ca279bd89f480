package repository

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when a compare-and-swap update lost
	// against a concurrent writer. The caller should re-read and retry.
	ErrVersionConflict = errors.New("version conflict")
)
