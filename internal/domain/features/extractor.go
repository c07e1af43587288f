// Package features computes scalar biomechanical quantities from a pose
// frame. Every extractor is pure and reports a missing or undefined value as
// an error instead of a sentinel number.
package features

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/pitchmech/internal/domain/pose"
	"gonum.org/v1/gonum/spatial/r2"
)

// ElbowState is the vertical relation of the throwing elbow to the shoulder.
type ElbowState uint8

const (
	BelowShoulder ElbowState = iota
	AboveShoulder
)

func (s ElbowState) String() string {
	if s == AboveShoulder {
		return "ABOVE_SHOULDER"
	}
	return "BELOW_SHOULDER"
}

// ParseElbowState accepts ABOVE_SHOULDER/BELOW_SHOULDER in any case.
func ParseElbowState(s string) (ElbowState, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ABOVE_SHOULDER", "ABOVE":
		return AboveShoulder, true
	case "BELOW_SHOULDER", "BELOW":
		return BelowShoulder, true
	}
	return BelowShoulder, false
}

// Extractor computes features for one handedness and visibility threshold.
// The zero value is not usable; construct with New.
type Extractor struct {
	minVisibility   float64
	referenceHeight float64
	hand            pose.Hand
	sides           pose.Sides
}

// New returns an Extractor for a right-handed pitcher unless overridden.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		minVisibility:   DefaultMinVisibility,
		referenceHeight: DefaultReferenceHeightFt,
		hand:            pose.RightHanded,
		sides:           pose.RightHanded.Sides(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MinVisibility returns the configured visibility threshold.
func (e *Extractor) MinVisibility() float64 { return e.minVisibility }

// Throws returns the configured throwing hand.
func (e *Extractor) Throws() pose.Hand { return e.hand }

// points resolves ls in order, failing on the first landmark that is absent
// or not visible enough.
func (e *Extractor) points(f pose.Frame, ls ...pose.Landmark) ([]r2.Vec, error) {
	out := make([]r2.Vec, len(ls))
	for i, l := range ls {
		p, ok := f.Lookup(l)
		if !ok || p.Visibility < e.minVisibility {
			return nil, fmt.Errorf("%w: %s", ErrMissingLandmark, l)
		}
		out[i] = p.Vec()
	}
	return out, nil
}

// mirror flips horizontal direction for left-handers so that directional
// angles share one convention across handedness.
func (e *Extractor) mirror(v r2.Vec) r2.Vec {
	if e.hand == pose.LeftHanded {
		v.X = -v.X
	}
	return v
}

// PushOffAngle is the back-knee angle in degrees between knee→hip and
// knee→ankle.
func (e *Extractor) PushOffAngle(f pose.Frame) (float64, error) {
	pts, err := e.points(f, e.sides.BackHip, e.sides.BackKnee, e.sides.BackAnkle)
	if err != nil {
		return 0, fmt.Errorf("push-off angle: %w", err)
	}
	hip, knee, ankle := pts[0], pts[1], pts[2]
	a := r2.Sub(hip, knee)
	b := r2.Sub(ankle, knee)
	na, nb := r2.Norm(a), r2.Norm(b)
	if na == 0 || nb == 0 {
		return 0, fmt.Errorf("push-off angle: %w: zero-length leg segment", ErrDegenerate)
	}
	cos := clamp(r2.Dot(a, b)/(na*nb), -1, 1)
	return degrees(math.Acos(cos)), nil
}

// StrideLength is the horizontal ankle separation as a fraction of the
// approximate body height, 2×|back_hip.y − back_ankle.y|.
func (e *Extractor) StrideLength(f pose.Frame) (float64, error) {
	pts, err := e.points(f, e.sides.BackHip, e.sides.FrontAnkle, e.sides.BackAnkle)
	if err != nil {
		return 0, fmt.Errorf("stride length: %w", err)
	}
	hip, front, back := pts[0], pts[1], pts[2]
	height := math.Abs(hip.Y-back.Y) * 2
	if height == 0 {
		return 0, fmt.Errorf("stride length: %w: zero body height", ErrDegenerate)
	}
	return math.Abs(front.X-back.X) / height, nil
}

// ArmSlot maps the shoulder→elbow direction onto a clock face in (0,12].
func (e *Extractor) ArmSlot(f pose.Frame) (float64, error) {
	pts, err := e.points(f, e.sides.BackShoulder, e.sides.BackElbow)
	if err != nil {
		return 0, fmt.Errorf("arm slot: %w", err)
	}
	// An elbow on the shoulder gives atan2(0,0) = 0, i.e. 12 o'clock.
	v := e.mirror(r2.Sub(pts[1], pts[0]))
	clock := math.Mod(math.Atan2(v.Y, v.X)*6/math.Pi, 12)
	if clock < 0 {
		clock += 12
	}
	if clock == 0 {
		clock = 12
	}
	return clock, nil
}

// ElbowHeight reports whether the throwing elbow is above the shoulder.
func (e *Extractor) ElbowHeight(f pose.Frame) (ElbowState, error) {
	pts, err := e.points(f, e.sides.BackShoulder, e.sides.BackElbow)
	if err != nil {
		return BelowShoulder, fmt.Errorf("elbow height: %w", err)
	}
	if pts[1].Y < pts[0].Y {
		return AboveShoulder, nil
	}
	return BelowShoulder, nil
}

// ReleaseHeight estimates the wrist height above the back ankle in feet.
func (e *Extractor) ReleaseHeight(f pose.Frame) (float64, error) {
	pts, err := e.points(f, e.sides.BackWrist, e.sides.BackAnkle)
	if err != nil {
		return 0, fmt.Errorf("release height: %w", err)
	}
	if f.Height <= 0 {
		return 0, fmt.Errorf("release height: %w: frame height %v", ErrDegenerate, f.Height)
	}
	return math.Abs(pts[1].Y-pts[0].Y) / f.Height * e.referenceHeight, nil
}

// HipsCenter is the midpoint of the two hips.
func (e *Extractor) HipsCenter(f pose.Frame) (r2.Vec, error) {
	pts, err := e.points(f, pose.LeftHip, pose.RightHip)
	if err != nil {
		return r2.Vec{}, fmt.Errorf("hips center: %w", err)
	}
	return midpoint(pts[0], pts[1]), nil
}

// ShoulderCenter is the midpoint of the two shoulders.
func (e *Extractor) ShoulderCenter(f pose.Frame) (r2.Vec, error) {
	pts, err := e.points(f, pose.LeftShoulder, pose.RightShoulder)
	if err != nil {
		return r2.Vec{}, fmt.Errorf("shoulder center: %w", err)
	}
	return midpoint(pts[0], pts[1]), nil
}

// SpineAngle is the unsigned tilt in degrees of hip-center→shoulder-center
// away from vertical.
func (e *Extractor) SpineAngle(f pose.Frame) (float64, error) {
	hips, err := e.HipsCenter(f)
	if err != nil {
		return 0, fmt.Errorf("spine angle: %w", err)
	}
	shoulders, err := e.ShoulderCenter(f)
	if err != nil {
		return 0, fmt.Errorf("spine angle: %w", err)
	}
	v := r2.Sub(shoulders, hips)
	return math.Abs(degrees(math.Atan2(v.X, -v.Y))), nil
}

// FootAngle is the front ankle→toe direction in degrees from horizontal.
func (e *Extractor) FootAngle(f pose.Frame) (float64, error) {
	pts, err := e.points(f, e.sides.FrontAnkle, e.sides.FrontFootIndex)
	if err != nil {
		return 0, fmt.Errorf("foot angle: %w", err)
	}
	v := e.mirror(r2.Sub(pts[1], pts[0]))
	return degrees(math.Atan2(v.Y, v.X)), nil
}

// HeadOffset is the horizontal nose-to-hips-center distance as a fraction of
// frame width.
func (e *Extractor) HeadOffset(f pose.Frame) (float64, error) {
	pts, err := e.points(f, pose.Nose)
	if err != nil {
		return 0, fmt.Errorf("head offset: %w", err)
	}
	hips, err := e.HipsCenter(f)
	if err != nil {
		return 0, fmt.Errorf("head offset: %w", err)
	}
	if f.Width <= 0 {
		return 0, fmt.Errorf("head offset: %w: frame width %v", ErrDegenerate, f.Width)
	}
	return math.Abs(pts[0].X-hips.X) / f.Width, nil
}

func midpoint(a, b r2.Vec) r2.Vec { return r2.Scale(0.5, r2.Add(a, b)) }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
