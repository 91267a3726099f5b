package dispatch

import "errors"

// ErrValidation marks malformed input to job creation, registration, or
// settlement. Conflict and not-found conditions come through as the store's
// sentinel errors; sink failures never surface at all.
var ErrValidation = errors.New("validation failed")
