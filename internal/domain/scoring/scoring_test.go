package scoring_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/okian/pitchmech/internal/domain/deviation"
	"github.com/okian/pitchmech/internal/domain/features"
	"github.com/okian/pitchmech/internal/domain/model"
	"github.com/okian/pitchmech/internal/domain/pose"
	"github.com/okian/pitchmech/internal/domain/profile"
	"github.com/okian/pitchmech/internal/domain/scoring"
	"github.com/okian/pitchmech/internal/domain/variance"
	. "github.com/smartystreets/goconvey/convey"
)

func pt(x, y float64) pose.Point { return pose.Point{X: x, Y: y, Visibility: 0.95} }

func deliveryFrame() pose.Frame {
	return pose.NewFrame(1000, 1080, map[pose.Landmark]pose.Point{
		pose.Nose:          pt(100, 200),
		pose.LeftShoulder:  pt(50, 300),
		pose.RightShoulder: pt(150, 300),
		pose.RightElbow:    pt(250, 250),
		pose.RightWrist:    pt(300, 100),
		pose.LeftHip:       pt(50, 500),
		pose.RightHip:      pt(150, 500),
		pose.RightKnee:     pt(150, 700),
		pose.RightAnkle:    pt(250, 1000),
		pose.LeftAnkle:     pt(600, 1000),
		pose.LeftFootIndex: pt(640, 1000),
	})
}

func exactProfile(f pose.Frame) profile.MechanicsProfile {
	feat := features.New().Extract(f)
	v := func(m features.Measurement) *float64 {
		x := m.Value
		return &x
	}
	p, err := profile.Document{
		PitcherID:          "kershaw",
		PitchType:          "slider",
		PushOffAngle:       v(feat.PushOffAngle),
		StrideLength:       v(feat.StrideLength),
		ArmSlot:            v(feat.ArmSlot),
		ElbowHeight:        feat.Elbow.State.String(),
		ReleasePointHeight: v(feat.ReleaseHeight),
		SpineAngle:         v(feat.SpineAngle),
		LandingFootAngle:   v(feat.FootAngle),
	}.Build()
	So(err, ShouldBeNil)
	return p
}

type fakeProfiles struct {
	profiles map[profile.Key]profile.MechanicsProfile
	lookups  atomic.Int32
}

func (f *fakeProfiles) Get(_ context.Context, pitcherID, pitchType string) (profile.MechanicsProfile, error) {
	f.lookups.Add(1)
	p, ok := f.profiles[profile.NewKey(pitcherID, pitchType)]
	if !ok {
		return profile.MechanicsProfile{}, profile.ErrProfileNotFound
	}
	return p, nil
}

func TestClipScorer_Score(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scorer with one stored profile", t, func() {
		frame := deliveryFrame()
		ideal := exactProfile(frame)
		store := &fakeProfiles{profiles: map[profile.Key]profile.MechanicsProfile{ideal.Key: ideal}}
		scorer := scoring.NewClipScorer(store)

		Convey("When a matching clip is scored", func() {
			clip := model.Clip{ClipID: "c-1", PitcherID: "Kershaw", PitchType: "Slider", Frames: []pose.Frame{frame, frame}}
			dev, err := scorer.Score(ctx, clip)

			Convey("Then it has no deviation", func() {
				So(err, ShouldBeNil)
				So(dev.Scorable, ShouldBeTrue)
				So(dev.MeanDeviationPct, ShouldAlmostEqual, 0, 1e-9)
				So(dev.Category, ShouldEqual, variance.None)
				So(dev.FramesUsed, ShouldEqual, 2)
				So(dev.Profile, ShouldResemble, ideal.Key)
			})
		})

		Convey("When the pitcher has no profile", func() {
			_, err := scorer.Score(ctx, model.Clip{ClipID: "c-2", PitcherID: "nobody", PitchType: "slider", Frames: []pose.Frame{frame}})

			Convey("Then a configuration error is returned", func() {
				So(errors.Is(err, profile.ErrProfileNotFound), ShouldBeTrue)
				So(errors.Is(err, profile.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When no frame qualifies", func() {
			dev, err := scorer.Score(ctx, model.Clip{ClipID: "c-3", PitcherID: "kershaw", PitchType: "slider", Frames: []pose.Frame{frame.Without(pose.RightWrist)}})

			Convey("Then the clip is unscorable", func() {
				So(errors.Is(err, deviation.ErrUnscorableClip), ShouldBeTrue)
				So(dev.Scorable, ShouldBeFalse)
				So(dev.FramesDiscarded, ShouldEqual, 1)
			})
		})

		Convey("When calculator options raise the minimum", func() {
			strict := scoring.NewClipScorer(store, scoring.WithCalculatorOptions(deviation.WithMinValidFrames(3)))
			_, err := strict.Score(ctx, model.Clip{ClipID: "c-4", PitcherID: "kershaw", PitchType: "slider", Frames: []pose.Frame{frame, frame}})

			Convey("Then two frames are not enough", func() {
				So(errors.Is(err, deviation.ErrUnscorableClip), ShouldBeTrue)
			})
		})

		Convey("When the stored profile changes between calls", func() {
			clip := model.Clip{ClipID: "c-5", PitcherID: "kershaw", PitchType: "slider", Frames: []pose.Frame{frame}}
			first, err := scorer.Score(ctx, clip)
			So(err, ShouldBeNil)

			changed := ideal
			changed.PushOffAngle += 30
			store.profiles[ideal.Key] = changed
			second, err := scorer.Score(ctx, clip)
			So(err, ShouldBeNil)

			Convey("Then the new profile is used", func() {
				So(first.MeanDeviationPct, ShouldAlmostEqual, 0, 1e-9)
				So(second.MeanDeviationPct, ShouldBeGreaterThan, 0)
				So(store.lookups.Load(), ShouldEqual, 2)
			})
		})
	})
}
