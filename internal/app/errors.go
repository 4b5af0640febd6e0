package app

import "errors"

var (
	// ErrNotStarted is returned when an operation reaches the service before
	// Start or after Stop.
	ErrNotStarted = errors.New("service not started")

	// ErrValidation is returned for requests that fail input validation.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable is returned when a required persistence read fails and
	// the request cannot be served.
	ErrUnavailable = errors.New("dependency unavailable")
)
