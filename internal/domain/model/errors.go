package model

import "errors"

// Sentinel kinds for domain validation errors.
var (
	ErrInvalidWindow     = errors.New("window end must be after start")
	ErrInvalidClockTime  = errors.New("clock time out of range")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrInvalidWeights    = errors.New("invalid scoring weights")
	ErrUnknownFactor     = errors.New("unknown tie-breaker factor")
	ErrInvalidRating     = errors.New("rating outside contractor scale")
)
