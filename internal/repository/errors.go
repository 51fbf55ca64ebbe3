package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert hits an existing row for the
	// same natural key. For history inserts this is the DuplicateSkip case:
	// callers treat it as a successful no-op, not a failure.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConstraintViolation is returned when a store constraint fails
	ErrConstraintViolation = errors.New("constraint violation")
)
