// Package deviation scores how far a clip of pose frames departs from a
// pitcher's reference mechanics.
package deviation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/okian/pitchmech/internal/domain/features"
	"github.com/okian/pitchmech/internal/domain/pose"
	"github.com/okian/pitchmech/internal/domain/profile"
	"github.com/okian/pitchmech/internal/domain/variance"
	"github.com/okian/pitchmech/pkg/logger"
	"gonum.org/v1/gonum/stat"
)

// FrameDeviation is the per-frame result. Valid is true iff every component
// was computed; Weighted is meaningful only when Valid.
type FrameDeviation struct {
	Index     int         `json:"index"`
	LegDrive  *float64    `json:"leg_drive"`
	ArmAction *float64    `json:"arm_action"`
	Balance   *float64    `json:"balance"`
	Weighted  float64     `json:"weighted"`
	Valid     bool        `json:"valid"`
	Missing   []Component `json:"missing,omitempty"`
	Reasons   []string    `json:"reasons,omitempty"`
}

// ComponentMeans are per-component means over used frames, in percent.
type ComponentMeans struct {
	LegDrive  float64 `json:"leg_drive"`
	ArmAction float64 `json:"arm_action"`
	Balance   float64 `json:"balance"`
}

// ClipDeviation aggregates a clip. FramesUsed+FramesDiscarded always equals
// the number of input frames. When Scorable is false MeanDeviationPct and
// Category carry no meaning.
type ClipDeviation struct {
	Profile          profile.Key       `json:"profile"`
	MeanDeviationPct float64           `json:"mean_deviation_pct"`
	Category         variance.Category `json:"category"`
	Components       ComponentMeans    `json:"components"`
	FramesUsed       int               `json:"frames_used"`
	FramesDiscarded  int               `json:"frames_discarded"`
	Scorable         bool              `json:"scorable"`
	Frames           []FrameDeviation  `json:"frames,omitempty"`
}

// Total returns the number of frames submitted.
func (c ClipDeviation) Total() int { return c.FramesUsed + c.FramesDiscarded }

// Scorer scores a clip of frames.
type Scorer interface {
	Score(ctx context.Context, frames []pose.Frame) (ClipDeviation, error)
}

// Calculator scores clips against one reference profile. It is safe for
// concurrent use.
type Calculator struct {
	ideal          profile.MechanicsProfile
	extractor      *features.Extractor
	extractorOpts  []features.Option
	weights        Weights
	parallelism    int
	minValidFrames int
	log            logger.Logger
}

var _ Scorer = (*Calculator)(nil)

// NewCalculator validates ideal and returns a Calculator. An incomplete
// profile yields an error wrapping profile.ErrConfiguration.
func NewCalculator(ideal profile.MechanicsProfile, opts ...Option) (*Calculator, error) {
	if err := ideal.Validate(); err != nil {
		return nil, fmt.Errorf("new calculator: %w", err)
	}
	c := &Calculator{
		ideal:          ideal,
		weights:        DefaultWeights,
		parallelism:    runtime.NumCPU(),
		minValidFrames: 1,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	eopts := append(append([]features.Option{}, c.extractorOpts...), features.WithThrows(ideal.Throws))
	c.extractor = features.New(eopts...)
	return c, nil
}

// Profile returns the reference profile.
func (c *Calculator) Profile() profile.MechanicsProfile { return c.ideal }

// Frame scores one frame. Each component is attempted independently so the
// result records every missing component, not just the first.
func (c *Calculator) Frame(index int, f pose.Frame) FrameDeviation {
	feat := c.extractor.Extract(f)
	out := FrameDeviation{Index: index}

	record := func(comp Component, v float64, err error) *float64 {
		if err != nil {
			out.Missing = append(out.Missing, comp)
			out.Reasons = append(out.Reasons, err.Error())
			return nil
		}
		return &v
	}
	ld, err := LegDriveDeviation(feat, c.ideal)
	out.LegDrive = record(LegDrive, ld, err)
	aa, err := ArmActionDeviation(feat, c.ideal)
	out.ArmAction = record(ArmAction, aa, err)
	bal, err := BalanceDeviation(feat, c.ideal)
	out.Balance = record(Balance, bal, err)

	out.Valid = len(out.Missing) == 0
	if out.Valid {
		out.Weighted = c.weights.LegDrive*ld + c.weights.ArmAction*aa + c.weights.Balance*bal
	}
	return out
}

// Score maps frames in parallel and reduces the results in index order, so
// identical input always yields identical output. A clip with fewer
// qualifying frames than the configured minimum returns a ClipDeviation
// with Scorable=false together with ErrUnscorableClip.
func (c *Calculator) Score(ctx context.Context, frames []pose.Frame) (ClipDeviation, error) {
	if err := ctx.Err(); err != nil {
		return ClipDeviation{}, fmt.Errorf("score clip: %w", err)
	}

	results := make([]FrameDeviation, len(frames))
	workers := c.parallelism
	if workers > len(frames) {
		workers = len(frames)
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i] = c.Frame(i, frames[i])
			}
		}()
	}
feed:
	for i := range frames {
		select {
		case <-ctx.Done():
			break feed
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return ClipDeviation{}, fmt.Errorf("score clip: %w", err)
	}

	return c.reduce(ctx, results)
}

func (c *Calculator) reduce(ctx context.Context, results []FrameDeviation) (ClipDeviation, error) {
	out := ClipDeviation{Profile: c.ideal.Key, Frames: results}
	weighted := make([]float64, 0, len(results))
	var legs, arms, bals []float64
	for _, r := range results {
		if !r.Valid {
			out.FramesDiscarded++
			c.log.Debug(ctx, "frame discarded",
				logger.String("profile", c.ideal.Key.String()),
				logger.Int("frame", r.Index),
				logger.String("missing", joinComponents(r.Missing)),
				logger.String("reason", strings.Join(r.Reasons, "; ")))
			continue
		}
		out.FramesUsed++
		weighted = append(weighted, r.Weighted)
		legs = append(legs, *r.LegDrive)
		arms = append(arms, *r.ArmAction)
		bals = append(bals, *r.Balance)
	}

	if out.FramesUsed == 0 || out.FramesUsed < c.minValidFrames {
		return out, fmt.Errorf("%w: %d of %d frames usable, need %d",
			ErrUnscorableClip, out.FramesUsed, len(results), max(1, c.minValidFrames))
	}

	out.MeanDeviationPct = toPct(stat.Mean(weighted, nil))
	out.Components = ComponentMeans{
		LegDrive:  toPct(stat.Mean(legs, nil)),
		ArmAction: toPct(stat.Mean(arms, nil)),
		Balance:   toPct(stat.Mean(bals, nil)),
	}
	cat, err := variance.Classify(out.MeanDeviationPct)
	if err != nil {
		return out, fmt.Errorf("classify clip: %w", err)
	}
	out.Category = cat
	out.Scorable = true
	return out, nil
}

// toPct converts a fraction to a percentage clamped to [0,100].
func toPct(v float64) float64 {
	if math.IsNaN(v) {
		return 100
	}
	return math.Max(0, math.Min(100, v*100))
}

func joinComponents(cs []Component) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
