// Package scoring scores submitted clips against the pitcher's stored
// reference mechanics.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pitchmech/internal/domain/deviation"
	"github.com/okian/pitchmech/internal/domain/model"
	"github.com/okian/pitchmech/internal/domain/profile"
	"github.com/okian/pitchmech/pkg/logger"
	"github.com/okian/pitchmech/pkg/metrics"
)

// ProfileProvider resolves reference mechanics.
type ProfileProvider interface {
	Get(ctx context.Context, pitcherID, pitchType string) (profile.MechanicsProfile, error)
}

// Scorer scores a clip. Unscorable clips return a ClipDeviation together
// with an error wrapping deviation.ErrUnscorableClip.
type Scorer interface {
	Score(ctx context.Context, clip model.Clip) (deviation.ClipDeviation, error)
}

// Option applies a configuration option to the ClipScorer.
type Option func(*ClipScorer)

// WithCalculatorOptions forwards options to every calculator the scorer
// builds.
func WithCalculatorOptions(opts ...deviation.Option) Option {
	return func(s *ClipScorer) {
		s.calcOpts = append(s.calcOpts, opts...)
	}
}

// WithLogger sets the scorer logger.
func WithLogger(l logger.Logger) Option {
	return func(s *ClipScorer) {
		if l != nil {
			s.log = l
		}
	}
}

// ClipScorer looks up the profile for each clip and scores it. Calculators
// are cached per profile key and rebuilt when the stored profile changes.
type ClipScorer struct {
	profiles ProfileProvider
	calcOpts []deviation.Option
	log      logger.Logger

	mu    sync.Mutex
	calcs map[profile.Key]*deviation.Calculator
}

var _ Scorer = (*ClipScorer)(nil)

// NewClipScorer creates a scorer backed by profiles.
func NewClipScorer(profiles ProfileProvider, opts ...Option) *ClipScorer {
	s := &ClipScorer{
		profiles: profiles,
		log:      logger.Nop(),
		calcs:    make(map[profile.Key]*deviation.Calculator),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score implements Scorer.
func (s *ClipScorer) Score(ctx context.Context, clip model.Clip) (deviation.ClipDeviation, error) {
	start := time.Now()

	ideal, err := s.profiles.Get(ctx, clip.PitcherID, clip.PitchType)
	if err != nil {
		metrics.RecordErrorByComponent("scoring", "profile_lookup")
		return deviation.ClipDeviation{}, fmt.Errorf("clip %s: %w", clip.ClipID, err)
	}
	calc, err := s.calculator(ideal)
	if err != nil {
		metrics.RecordErrorByComponent("scoring", "profile_invalid")
		return deviation.ClipDeviation{}, fmt.Errorf("clip %s: %w", clip.ClipID, err)
	}

	dev, err := calc.Score(ctx, clip.Frames)
	recordFrames(dev)
	switch {
	case errors.Is(err, deviation.ErrUnscorableClip):
		metrics.RecordClipUnscorable()
		s.log.Info(ctx, "clip unscorable",
			logger.String("clip_id", clip.ClipID),
			logger.String("profile", ideal.Key.String()),
			logger.Int("frames_used", dev.FramesUsed),
			logger.Int("frames_discarded", dev.FramesDiscarded))
		return dev, fmt.Errorf("clip %s: %w", clip.ClipID, err)
	case err != nil:
		metrics.RecordErrorByComponent("scoring", "calculator")
		return dev, fmt.Errorf("clip %s: %w", clip.ClipID, err)
	}

	latency := time.Since(start)
	metrics.RecordClipScored(dev.Category.String(), dev.MeanDeviationPct, float64(latency.Milliseconds()))
	s.log.Debug(ctx, "clip scored",
		logger.String("clip_id", clip.ClipID),
		logger.String("profile", ideal.Key.String()),
		logger.Float64("deviation_pct", dev.MeanDeviationPct),
		logger.String("category", dev.Category.String()),
		logger.Duration("latency", latency))
	return dev, nil
}

func (s *ClipScorer) calculator(ideal profile.MechanicsProfile) (*deviation.Calculator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.calcs[ideal.Key]; ok && c.Profile() == ideal {
		return c, nil
	}
	c, err := deviation.NewCalculator(ideal, s.calcOpts...)
	if err != nil {
		return nil, err
	}
	s.calcs[ideal.Key] = c
	return c, nil
}

func recordFrames(dev deviation.ClipDeviation) {
	if dev.FramesUsed > 0 {
		metrics.RecordFrameScored(dev.FramesUsed)
	}
	for _, f := range dev.Frames {
		if len(f.Missing) > 0 {
			metrics.RecordFrameDiscarded(f.Missing[0].String())
		}
	}
}
