package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound  = errors.New("entity not found")
	ErrMissingID = errors.New("entity id must not be empty")
)
