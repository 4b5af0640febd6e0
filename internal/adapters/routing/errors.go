package routing

import "errors"

// ErrInvalidOrigin is returned when the origin coordinates are outside valid
// latitude/longitude ranges.
var ErrInvalidOrigin = errors.New("invalid origin coordinates")
