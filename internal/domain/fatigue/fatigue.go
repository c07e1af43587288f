// Package fatigue turns a pitcher's per-pitch metrics over an outing into a
// bounded, explainable fatigue score.
package fatigue

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	baseScore = 1
	minScore  = 1
	maxScore  = 10
)

// Metrics are the measurements of one pitch. A nil field was not measured.
type Metrics struct {
	// Velocity in mph.
	Velocity *float64 `json:"velocity,omitempty"`
	// Control is a 0-100 command rating.
	Control *float64 `json:"control,omitempty"`
	// PitchDuration is the delivery time in seconds.
	PitchDuration *float64 `json:"pitch_duration,omitempty"`
	// ReleaseHeight in inches.
	ReleaseHeight *float64 `json:"release_height,omitempty"`
}

// Recommendation is the action suggested by a score.
type Recommendation uint8

const (
	OK Recommendation = iota
	Caution
	Warning
	ImmediateAction
	Error
)

var recommendationNames = [...]string{
	OK:              "OK",
	Caution:         "CAUTION",
	Warning:         "WARNING",
	ImmediateAction: "IMMEDIATE_ACTION",
	Error:           "ERROR",
}

func (r Recommendation) String() string {
	if int(r) < len(recommendationNames) {
		return recommendationNames[r]
	}
	return fmt.Sprintf("Recommendation(%d)", uint8(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Recommendation) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// RecommendationFor maps a score onto a recommendation.
func RecommendationFor(score int) Recommendation {
	switch {
	case score >= 8:
		return ImmediateAction
	case score >= 6:
		return Warning
	case score >= 4:
		return Caution
	default:
		return OK
	}
}

// Factors are the bucketed contributions to the score.
type Factors struct {
	VelocityDrop         int `json:"velocity_drop"`
	ControlLoss          int `json:"control_loss"`
	ReleasePointVariance int `json:"release_point_variance"`
	DeliverySlowdown     int `json:"delivery_slowdown"`
}

// Sum returns the total factor points.
func (f Factors) Sum() int {
	return f.VelocityDrop + f.ControlLoss + f.ReleasePointVariance + f.DeliverySlowdown
}

// Assessment is the fatigue verdict for one pitch. Score is nil exactly when
// Recommendation is Error, and Err then says why.
type Assessment struct {
	Score          *int           `json:"score"`
	Factors        Factors        `json:"factors"`
	Recommendation Recommendation `json:"recommendation"`
	Details        []string       `json:"details"`
	Err            error          `json:"-"`
}

// MarshalJSON adds the error text to the encoded assessment.
func (a Assessment) MarshalJSON() ([]byte, error) {
	type plain Assessment
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(a)}
	if a.Err != nil {
		out.Error = a.Err.Error()
	}
	return json.Marshal(out)
}

// Assess scores current against the outing history. history is ordered
// oldest first; its first entry is the velocity baseline. Assess never
// modifies its arguments.
func Assess(current Metrics, history []Metrics) Assessment {
	var f Factors
	var details []string

	fail := func(err error) Assessment {
		return Assessment{
			Recommendation: Error,
			Details:        []string{err.Error()},
			Err:            err,
		}
	}

	velocity, err := required("current velocity", current.Velocity)
	if err != nil {
		return fail(err)
	}
	control, err := required("current control", current.Control)
	if err != nil {
		return fail(err)
	}
	duration, err := required("current pitch_duration", current.PitchDuration)
	if err != nil {
		return fail(err)
	}

	if len(history) > 0 {
		baseline, err := required("baseline velocity", history[0].Velocity)
		if err != nil {
			return fail(err)
		}
		drop := baseline - velocity
		f.VelocityDrop = bucket(drop, 3, 2, 1)
		if f.VelocityDrop > 0 {
			details = append(details, fmt.Sprintf("velocity_drop: %.1f mph below first pitch (+%d)", drop, f.VelocityDrop))
		}
	}

	f.ControlLoss = controlBucket(control)
	if f.ControlLoss > 0 {
		details = append(details, fmt.Sprintf("control_loss: control %.1f (+%d)", control, f.ControlLoss))
	}

	spread, ok, err := releaseVariance(current, history)
	if err != nil {
		return fail(err)
	}
	if ok {
		switch {
		case spread > 5:
			f.ReleasePointVariance = 2
		case spread > 3:
			f.ReleasePointVariance = 1
		}
		if f.ReleasePointVariance > 0 {
			details = append(details, fmt.Sprintf("release_point_variance: %.1f in from outing mean (+%d)", spread, f.ReleasePointVariance))
		}
	}

	switch {
	case duration > 0.5:
		f.DeliverySlowdown = 2
	case duration > 0.4:
		f.DeliverySlowdown = 1
	}
	if f.DeliverySlowdown > 0 {
		details = append(details, fmt.Sprintf("delivery_slowdown: %.2f s delivery (+%d)", duration, f.DeliverySlowdown))
	}

	score := baseScore + f.Sum()
	score = max(minScore, min(maxScore, score))
	if details == nil {
		details = []string{}
	}
	return Assessment{
		Score:          &score,
		Factors:        f,
		Recommendation: RecommendationFor(score),
		Details:        details,
	}
}

// bucket returns 3, 2 or 1 for v strictly above the respective threshold.
func bucket(v, t3, t2, t1 float64) int {
	switch {
	case v > t3:
		return 3
	case v > t2:
		return 2
	case v > t1:
		return 1
	}
	return 0
}

func controlBucket(control float64) int {
	switch {
	case control < 60:
		return 3
	case control < 75:
		return 2
	case control < 85:
		return 1
	}
	return 0
}

// releaseVariance is |current − mean(history)| over the history entries that
// carry a release height. ok is false when there is nothing to compare.
func releaseVariance(current Metrics, history []Metrics) (float64, bool, error) {
	if current.ReleaseHeight == nil || len(history) == 0 {
		return 0, false, nil
	}
	cur, err := required("current release_height", current.ReleaseHeight)
	if err != nil {
		return 0, false, err
	}
	heights := make([]float64, 0, len(history))
	for i, h := range history {
		if h.ReleaseHeight == nil {
			continue
		}
		v, err := required(fmt.Sprintf("history[%d] release_height", i), h.ReleaseHeight)
		if err != nil {
			return 0, false, err
		}
		heights = append(heights, v)
	}
	if len(heights) == 0 {
		return 0, false, nil
	}
	return math.Abs(cur - stat.Mean(heights, nil)), true, nil
}

func required(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrFatigueComputation, name)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%w: %s is not finite", ErrFatigueComputation, name)
	}
	return *v, nil
}
