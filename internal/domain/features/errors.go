package features

import "errors"

var (
	// ErrMissingLandmark is returned when a required landmark is absent or
	// below the visibility threshold.
	ErrMissingLandmark = errors.New("missing landmark")
	// ErrDegenerate is returned when the geometry has no defined value, such
	// as a zero-length vector or a zero reference length.
	ErrDegenerate = errors.New("degenerate geometry")
)
