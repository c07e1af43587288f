package deviation

import "errors"

// ErrUnscorableClip is returned when too few frames qualify to produce a
// percentage. It is never reported as a 0% score.
var ErrUnscorableClip = errors.New("unscorable clip")
