package fatigue

import "errors"

// ErrFatigueComputation marks an assessment that could not be computed.
var ErrFatigueComputation = errors.New("fatigue computation failed")
