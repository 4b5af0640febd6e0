package availability

import "errors"

// Sentinel kinds for slot finder errors.
var (
	ErrInvalidDuration      = errors.New("job duration must be positive")
	ErrInvalidServiceWindow = errors.New("service window end must be after start")
)
