// Package pose models one sampled instant of a pitching motion as a fixed set
// of body landmarks with per-point detection confidence.
package pose

import "strings"

// Landmark identifies a body point produced by the pose detector.
type Landmark uint8

// Supported landmarks. The set is closed; detectors emitting other points are
// ignored at the decoding boundary.
const (
	Nose Landmark = iota
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftFootIndex
	RightFootIndex

	numLandmarks
)

var landmarkNames = [numLandmarks]string{
	Nose:           "nose",
	LeftShoulder:   "LEFT_SHOULDER",
	RightShoulder:  "RIGHT_SHOULDER",
	LeftElbow:      "LEFT_ELBOW",
	RightElbow:     "RIGHT_ELBOW",
	LeftWrist:      "LEFT_WRIST",
	RightWrist:     "RIGHT_WRIST",
	LeftHip:        "LEFT_HIP",
	RightHip:       "RIGHT_HIP",
	LeftKnee:       "LEFT_KNEE",
	RightKnee:      "RIGHT_KNEE",
	LeftAnkle:      "LEFT_ANKLE",
	RightAnkle:     "RIGHT_ANKLE",
	LeftFootIndex:  "LEFT_FOOT_INDEX",
	RightFootIndex: "RIGHT_FOOT_INDEX",
}

// String returns the detector name of the landmark.
func (l Landmark) String() string {
	if l >= numLandmarks {
		return "unknown"
	}
	return landmarkNames[l]
}

// Valid reports whether l is one of the supported landmarks.
func (l Landmark) Valid() bool { return l < numLandmarks }

// All returns every supported landmark in declaration order.
func All() []Landmark {
	out := make([]Landmark, 0, numLandmarks)
	for l := Landmark(0); l < numLandmarks; l++ {
		out = append(out, l)
	}
	return out
}

// ParseLandmark maps a detector name (case-insensitive) to a Landmark.
func ParseLandmark(name string) (Landmark, bool) {
	n := strings.TrimSpace(name)
	for l := Landmark(0); l < numLandmarks; l++ {
		if strings.EqualFold(landmarkNames[l], n) {
			return l, true
		}
	}
	return 0, false
}

// Hand is the throwing hand of a pitcher.
type Hand uint8

const (
	// RightHanded pitchers drive off the right leg and land on the left.
	RightHanded Hand = iota
	LeftHanded
)

// ParseHand accepts "R", "L", "right", "left" (any case). Empty means right.
func ParseHand(s string) (Hand, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "r", "right", "rhp":
		return RightHanded, true
	case "l", "left", "lhp":
		return LeftHanded, true
	}
	return RightHanded, false
}

func (h Hand) String() string {
	if h == LeftHanded {
		return "L"
	}
	return "R"
}

// Sides names the landmarks of the throwing (back) side and the glove (front)
// side for one handedness.
type Sides struct {
	BackShoulder, BackElbow, BackWrist, BackHip, BackKnee, BackAnkle Landmark
	FrontHip, FrontAnkle, FrontFootIndex                              Landmark
}

var (
	rightSides = Sides{
		BackShoulder: RightShoulder, BackElbow: RightElbow, BackWrist: RightWrist,
		BackHip: RightHip, BackKnee: RightKnee, BackAnkle: RightAnkle,
		FrontHip: LeftHip, FrontAnkle: LeftAnkle, FrontFootIndex: LeftFootIndex,
	}
	leftSides = Sides{
		BackShoulder: LeftShoulder, BackElbow: LeftElbow, BackWrist: LeftWrist,
		BackHip: LeftHip, BackKnee: LeftKnee, BackAnkle: LeftAnkle,
		FrontHip: RightHip, FrontAnkle: RightAnkle, FrontFootIndex: RightFootIndex,
	}
)

// Sides returns the side mapping for h.
func (h Hand) Sides() Sides {
	if h == LeftHanded {
		return leftSides
	}
	return rightSides
}
