package deviation

import (
	"fmt"
	"math"

	"github.com/okian/pitchmech/internal/domain/features"
	"github.com/okian/pitchmech/internal/domain/profile"
)

// Component is one of the three scored aspects of a delivery.
type Component uint8

const (
	LegDrive Component = iota
	ArmAction
	Balance
)

// Components lists every component in reporting order.
var Components = []Component{LegDrive, ArmAction, Balance}

func (c Component) String() string {
	switch c {
	case LegDrive:
		return "leg_drive"
	case ArmAction:
		return "arm_action"
	case Balance:
		return "balance"
	}
	return fmt.Sprintf("component(%d)", uint8(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Component) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Weights combine component deviations into one frame deviation.
type Weights struct {
	LegDrive  float64 `json:"leg_drive"`
	ArmAction float64 `json:"arm_action"`
	Balance   float64 `json:"balance"`
}

// DefaultWeights favour arm action, then leg drive, then balance.
var DefaultWeights = Weights{LegDrive: 0.35, ArmAction: 0.40, Balance: 0.25}

const (
	angleScale     = 90.0
	armSlotScale   = 12.0
	footAngleScale = 45.0
	elbowMismatch  = 0.5
	legDriveTerms  = 2.0
	armActionTerms = 3.0
	balanceTerms   = 3.0
)

// LegDriveDeviation compares push-off angle and stride to the ideal.
func LegDriveDeviation(f features.Features, ideal profile.MechanicsProfile) (float64, error) {
	if err := firstErr(f.PushOffAngle, f.StrideLength); err != nil {
		return 0, fmt.Errorf("%s: %w", LegDrive, err)
	}
	push := math.Abs(f.PushOffAngle.Value-ideal.PushOffAngle) / angleScale
	stride := math.Abs(f.StrideLength.Value - ideal.StrideLength)
	return (push + stride) / legDriveTerms, nil
}

// ArmActionDeviation compares arm slot, elbow state and release height.
func ArmActionDeviation(f features.Features, ideal profile.MechanicsProfile) (float64, error) {
	if err := firstErr(f.ArmSlot, f.ReleaseHeight); err != nil {
		return 0, fmt.Errorf("%s: %w", ArmAction, err)
	}
	if !f.Elbow.OK {
		err := f.Elbow.Err
		if err == nil {
			err = features.ErrMissingLandmark
		}
		return 0, fmt.Errorf("%s: %w", ArmAction, err)
	}
	slot := math.Abs(f.ArmSlot.Value-ideal.ArmSlot) / armSlotScale
	penalty := 0.0
	if f.Elbow.State != ideal.ElbowHeight {
		penalty = elbowMismatch
	}
	release := math.Abs(f.ReleaseHeight.Value-ideal.ReleasePointHeight) / ideal.ReleasePointHeight
	return (slot + penalty + release) / armActionTerms, nil
}

// BalanceDeviation combines head offset, spine tilt and landing foot angle.
func BalanceDeviation(f features.Features, ideal profile.MechanicsProfile) (float64, error) {
	if err := firstErr(f.HeadOffset, f.SpineAngle, f.FootAngle); err != nil {
		return 0, fmt.Errorf("%s: %w", Balance, err)
	}
	spine := math.Abs(f.SpineAngle.Value-ideal.SpineAngle) / angleScale
	foot := math.Abs(f.FootAngle.Value-ideal.LandingFootAngle) / footAngleScale
	return (f.HeadOffset.Value + spine + foot) / balanceTerms, nil
}

func firstErr(ms ...features.Measurement) error {
	for _, m := range ms {
		if !m.OK {
			if m.Err == nil {
				return features.ErrMissingLandmark
			}
			return m.Err
		}
	}
	return nil
}
