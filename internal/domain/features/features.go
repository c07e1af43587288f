package features

import "github.com/okian/pitchmech/internal/domain/pose"

// Measurement is an optional scalar: OK is false when the extractor could not
// produce a value, and Err says why.
type Measurement struct {
	Value float64
	OK    bool
	Err   error
}

func measure(v float64, err error) Measurement {
	if err != nil {
		return Measurement{Err: err}
	}
	return Measurement{Value: v, OK: true}
}

// Elbow is the optional elbow state.
type Elbow struct {
	State ElbowState
	OK    bool
	Err   error
}

// Features is every quantity the extractor knows, each independently
// optional.
type Features struct {
	PushOffAngle  Measurement
	StrideLength  Measurement
	ArmSlot       Measurement
	Elbow         Elbow
	ReleaseHeight Measurement
	SpineAngle    Measurement
	FootAngle     Measurement
	HeadOffset    Measurement
}

// Extract runs every extractor over f. A failure in one quantity does not
// affect the others.
func (e *Extractor) Extract(f pose.Frame) Features {
	var out Features
	out.PushOffAngle = measure(e.PushOffAngle(f))
	out.StrideLength = measure(e.StrideLength(f))
	out.ArmSlot = measure(e.ArmSlot(f))
	if s, err := e.ElbowHeight(f); err != nil {
		out.Elbow = Elbow{Err: err}
	} else {
		out.Elbow = Elbow{State: s, OK: true}
	}
	out.ReleaseHeight = measure(e.ReleaseHeight(f))
	out.SpineAngle = measure(e.SpineAngle(f))
	out.FootAngle = measure(e.FootAngle(f))
	out.HeadOffset = measure(e.HeadOffset(f))
	return out
}
