package sqlite

import "errors"

var (
	// ErrNotFound is returned when a queried row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the bounded retry loop could not claim a
	// version number.
	ErrConflict = errors.New("version conflict")

	// ErrInvalidRollback is returned when the rollback target version does
	// not exist.
	ErrInvalidRollback = errors.New("invalid rollback target")
)
