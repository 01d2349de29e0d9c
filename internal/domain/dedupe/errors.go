package dedupe

import "errors"

// ErrDuplicateRequest is returned when a request id was already used.
var ErrDuplicateRequest = errors.New("duplicate race request")
