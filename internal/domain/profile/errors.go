package profile

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks a profile problem that is fatal to a scoring call.
var ErrConfiguration = errors.New("configuration error")

var (
	// ErrProfileNotFound is returned when no profile exists for a key.
	ErrProfileNotFound = fmt.Errorf("%w: profile not found", ErrConfiguration)
	// ErrIncompleteProfile is returned when a profile lacks a required field.
	ErrIncompleteProfile = fmt.Errorf("%w: incomplete profile", ErrConfiguration)
)
