package deviation

import (
	"github.com/okian/pitchmech/internal/domain/features"
	"github.com/okian/pitchmech/pkg/logger"
)

// Option configures a Calculator.
type Option func(*Calculator)

// WithExtractorOptions forwards options to the feature extractor. The
// throwing hand always comes from the profile.
func WithExtractorOptions(opts ...features.Option) Option {
	return func(c *Calculator) {
		c.extractorOpts = append(c.extractorOpts, opts...)
	}
}

// WithWeights overrides the component weights. Non-positive totals are
// ignored.
func WithWeights(w Weights) Option {
	return func(c *Calculator) {
		if w.LegDrive >= 0 && w.ArmAction >= 0 && w.Balance >= 0 && w.LegDrive+w.ArmAction+w.Balance > 0 {
			c.weights = w
		}
	}
}

// WithParallelism bounds the number of goroutines used per clip.
func WithParallelism(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithMinValidFrames sets how many frames must qualify for a clip to be
// scorable. Values below 1 are treated as 1.
func WithMinValidFrames(n int) Option {
	return func(c *Calculator) {
		if n < 1 {
			n = 1
		}
		c.minValidFrames = n
	}
}

// WithLogger sets the logger used for discarded-frame diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.log = l
		}
	}
}
