// Package profile holds reference mechanics for a pitcher and pitch type.
package profile

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/pitchmech/internal/domain/features"
	"github.com/okian/pitchmech/internal/domain/pose"
)

// SchemaVersion is the current profile document version.
const SchemaVersion = 1

// Key addresses one profile.
type Key struct {
	PitcherID string `json:"pitcher_id"`
	PitchType string `json:"pitch_type"`
}

// NewKey normalises identifiers to upper case so lookups are case-insensitive.
func NewKey(pitcherID, pitchType string) Key {
	return Key{
		PitcherID: strings.ToUpper(strings.TrimSpace(pitcherID)),
		PitchType: strings.ToUpper(strings.TrimSpace(pitchType)),
	}
}

func (k Key) String() string { return k.PitcherID + "/" + k.PitchType }

// MechanicsProfile is a validated set of ideal feature values.
type MechanicsProfile struct {
	Key                Key
	Throws             pose.Hand
	PushOffAngle       float64
	StrideLength       float64
	ArmSlot            float64
	ElbowHeight        features.ElbowState
	ReleasePointHeight float64
	SpineAngle         float64
	LandingFootAngle   float64
	Source             string
	Version            int
}

// Document is the authored form of a profile. Every measurement is a pointer
// so an omitted field is distinguishable from zero.
type Document struct {
	PitcherID          string   `json:"pitcher_id" koanf:"pitcher_id"`
	PitchType          string   `json:"pitch_type" koanf:"pitch_type"`
	Throws             string   `json:"throws,omitempty" koanf:"throws"`
	PushOffAngle       *float64 `json:"push_off_angle" koanf:"push_off_angle"`
	StrideLength       *float64 `json:"stride_length" koanf:"stride_length"`
	ArmSlot            *float64 `json:"arm_slot" koanf:"arm_slot"`
	ElbowHeight        string   `json:"elbow_height" koanf:"elbow_height"`
	ReleasePointHeight *float64 `json:"release_point_height" koanf:"release_point_height"`
	SpineAngle         *float64 `json:"spine_angle" koanf:"spine_angle"`
	LandingFootAngle   *float64 `json:"landing_foot_angle" koanf:"landing_foot_angle"`
	Source             string   `json:"source,omitempty" koanf:"source"`
	Version            int      `json:"version,omitempty" koanf:"version"`
}

// Build validates d and returns the profile. Missing or invalid fields yield
// an error wrapping ErrIncompleteProfile that names every offending field.
func (d Document) Build() (MechanicsProfile, error) {
	key := NewKey(d.PitcherID, d.PitchType)
	var problems []string
	if key.PitcherID == "" {
		problems = append(problems, "pitcher_id")
	}
	if key.PitchType == "" {
		problems = append(problems, "pitch_type")
	}

	num := func(name string, v *float64) float64 {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			problems = append(problems, name)
			return 0
		}
		return *v
	}
	p := MechanicsProfile{
		Key:                key,
		PushOffAngle:       num("push_off_angle", d.PushOffAngle),
		StrideLength:       num("stride_length", d.StrideLength),
		ArmSlot:            num("arm_slot", d.ArmSlot),
		ReleasePointHeight: num("release_point_height", d.ReleasePointHeight),
		SpineAngle:         num("spine_angle", d.SpineAngle),
		LandingFootAngle:   num("landing_foot_angle", d.LandingFootAngle),
		Source:             d.Source,
		Version:            d.Version,
	}
	if d.ReleasePointHeight != nil && *d.ReleasePointHeight <= 0 {
		problems = append(problems, "release_point_height (must be > 0)")
	}
	if d.ArmSlot != nil && (*d.ArmSlot <= 0 || *d.ArmSlot > 12) {
		problems = append(problems, "arm_slot (must be in (0,12])")
	}

	elbow, ok := features.ParseElbowState(d.ElbowHeight)
	if !ok {
		problems = append(problems, "elbow_height")
	}
	p.ElbowHeight = elbow

	hand, ok := pose.ParseHand(d.Throws)
	if !ok {
		problems = append(problems, "throws")
	}
	p.Throws = hand

	if p.Version == 0 {
		p.Version = SchemaVersion
	}
	if p.Version > SchemaVersion {
		problems = append(problems, fmt.Sprintf("version (unsupported %d)", p.Version))
	}

	if len(problems) > 0 {
		return MechanicsProfile{}, fmt.Errorf("%w: %s: %s", ErrIncompleteProfile, key, strings.Join(problems, ", "))
	}
	return p, nil
}

// Document returns the authored form of p.
func (p MechanicsProfile) Document() Document {
	f := func(v float64) *float64 { return &v }
	return Document{
		PitcherID:          p.Key.PitcherID,
		PitchType:          p.Key.PitchType,
		Throws:             p.Throws.String(),
		PushOffAngle:       f(p.PushOffAngle),
		StrideLength:       f(p.StrideLength),
		ArmSlot:            f(p.ArmSlot),
		ElbowHeight:        p.ElbowHeight.String(),
		ReleasePointHeight: f(p.ReleasePointHeight),
		SpineAngle:         f(p.SpineAngle),
		LandingFootAngle:   f(p.LandingFootAngle),
		Source:             p.Source,
		Version:            p.Version,
	}
}

// Validate re-checks an already built profile, for profiles constructed in
// code rather than through Document.Build.
func (p MechanicsProfile) Validate() error {
	_, err := p.Document().Build()
	return err
}
