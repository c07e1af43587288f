package features

import "github.com/okian/pitchmech/internal/domain/pose"

const (
	// DefaultMinVisibility is the detector confidence below which a landmark
	// is treated as missing.
	DefaultMinVisibility = 0.5
	// DefaultReferenceHeightFt scales pixel release height into feet.
	DefaultReferenceHeightFt = 7.0
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinVisibility sets the visibility threshold in [0,1].
func WithMinVisibility(v float64) Option {
	return func(e *Extractor) {
		if v >= 0 && v <= 1 {
			e.minVisibility = v
		}
	}
}

// WithReferenceHeight sets the assumed standing height in feet used to scale
// release height.
func WithReferenceHeight(ft float64) Option {
	return func(e *Extractor) {
		if ft > 0 {
			e.referenceHeight = ft
		}
	}
}

// WithThrows selects the throwing hand, which decides the back and front side.
func WithThrows(h pose.Hand) Option {
	return func(e *Extractor) {
		e.hand = h
		e.sides = h.Sides()
	}
}
