package variance

import "errors"

var (
	ErrOutOfRange   = errors.New("percentage out of range [0,100]")
	ErrUnknownLabel = errors.New("unknown variance label")
	ErrNoAssessment = errors.New("no mechanics assessment line")
)
