package features_test

import (
	"errors"
	"testing"

	"github.com/okian/pitchmech/internal/domain/features"
	"github.com/okian/pitchmech/internal/domain/pose"
	. "github.com/smartystreets/goconvey/convey"
)

func pt(x, y float64) pose.Point { return pose.Point{X: x, Y: y, Visibility: 0.99} }

func TestPushOffAngle(t *testing.T) {
	Convey("Given a right-handed extractor", t, func() {
		e := features.New()

		Convey("A 45 degree back knee is measured", func() {
			f := pose.NewFrame(1000, 1000, map[pose.Landmark]pose.Point{
				pose.RightHip:   pt(100, 100),
				pose.RightKnee:  pt(100, 200),
				pose.RightAnkle: pt(150, 150),
			})
			v, err := e.PushOffAngle(f)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 45, 1e-9)
		})

		Convey("A straight leg is 180 degrees", func() {
			f := pose.NewFrame(1000, 1000, map[pose.Landmark]pose.Point{
				pose.RightHip:   pt(100, 100),
				pose.RightKnee:  pt(100, 200),
				pose.RightAnkle: pt(100, 300),
			})
			v, err := e.PushOffAngle(f)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 180, 1e-9)
		})

		Convey("A knee on top of the hip is degenerate", func() {
			f := pose.NewFrame(1000, 1000, map[pose.Landmark]pose.Point{
				pose.RightHip:   pt(100, 100),
				pose.RightKnee:  pt(100, 100),
				pose.RightAnkle: pt(100, 300),
			})
			_, err := e.PushOffAngle(f)
			So(errors.Is(err, features.ErrDegenerate), ShouldBeTrue)
		})

		Convey("A low-visibility knee is missing", func() {
			f := pose.NewFrame(1000, 1000, map[pose.Landmark]pose.Point{
				pose.RightHip:   pt(100, 100),
				pose.RightKnee:  {X: 100, Y: 200, Visibility: 0.3},
				pose.RightAnkle: pt(100, 300),
			})
			_, err := e.PushOffAngle(f)
			So(errors.Is(err, features.ErrMissingLandmark), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "RIGHT_KNEE")
		})

		Convey("The visibility threshold is configurable", func() {
			f := pose.NewFrame(1000, 1000, map[pose.Landmark]pose.Point{
				pose.RightHip:   pt(100, 100),
				pose.RightKnee:  {X: 100, Y: 200, Visibility: 0.3},
				pose.RightAnkle: pt(100, 300),
			})
			_, err := features.New(features.WithMinVisibility(0.2)).PushOffAngle(f)
			So(err, ShouldBeNil)
		})
	})
}

func TestStrideLength(t *testing.T) {
	Convey("Given a right-handed extractor", t, func() {
		e := features.New()

		Convey("Stride is ankle separation over twice hip height", func() {
			f := pose.NewFrame(1000, 1000, map[pose.Landmark]pose.Point{
				pose.RightHip:   pt(100, 100),
				pose.RightAnkle: pt(150, 150),
				pose.LeftAnkle:  pt(240, 150),
			})
			v, err := e.StrideLength(f)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 0.9, 1e-12)
		})

		Convey("Zero body height is degenerate instead of dividing by zero", func() {
			f := pose.NewFrame(1000, 1000, map[pose.Landmark]pose.Point{
				pose.RightHip:   pt(100, 150),
				pose.RightAnkle: pt(150, 150),
				pose.LeftAnkle:  pt(240, 150),
			})
			_, err := e.StrideLength(f)
			So(errors.Is(err, features.ErrDegenerate), ShouldBeTrue)
		})

		Convey("A missing front ankle is reported", func() {
			f := pose.NewFrame(1000, 1000, map[pose.Landmark]pose.Point{
				pose.RightHip:   pt(100, 100),
				pose.RightAnkle: pt(150, 150),
			})
			_, err := e.StrideLength(f)
			So(errors.Is(err, features.ErrMissingLandmark), ShouldBeTrue)
		})
	})
}

func TestArmSlotAndElbow(t *testing.T) {
	Convey("Given a throwing arm", t, func() {
		e := features.New()
		arm := func(dx, dy float64) pose.Frame {
			return pose.NewFrame(1000, 1000, map[pose.Landmark]pose.Point{
				pose.RightShoulder: pt(500, 500),
				pose.RightElbow:    pt(500+dx, 500+dy),
			})
		}

		Convey("Clock positions follow the atan2 mapping", func() {
			v, err := e.ArmSlot(arm(100, 0))
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 12)

			v, _ = e.ArmSlot(arm(0, 100))
			So(v, ShouldAlmostEqual, 3, 1e-9)

			v, _ = e.ArmSlot(arm(-100, 0))
			So(v, ShouldAlmostEqual, 6, 1e-9)

			v, _ = e.ArmSlot(arm(0, -100))
			So(v, ShouldAlmostEqual, 9, 1e-9)

			v, _ = e.ArmSlot(arm(86.60254037844386, 50))
			So(v, ShouldAlmostEqual, 1, 1e-9)
		})

		Convey("The clock is never zero", func() {
			for _, d := range [][2]float64{{1, 0}, {1, 1e-12}, {1, -1e-12}, {-1, 0}, {0, 1}} {
				v, err := e.ArmSlot(arm(d[0], d[1]))
				So(err, ShouldBeNil)
				So(v, ShouldBeGreaterThan, 0)
				So(v, ShouldBeLessThanOrEqualTo, 12)
			}
		})

		Convey("An elbow exactly on the shoulder reads 12 o'clock", func() {
			v, err := e.ArmSlot(arm(0, 0))
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 12)
		})

		Convey("Elbow state compares vertical position", func() {
			s, err := e.ElbowHeight(arm(10, -5))
			So(err, ShouldBeNil)
			So(s, ShouldEqual, features.AboveShoulder)

			s, _ = e.ElbowHeight(arm(10, 5))
			So(s, ShouldEqual, features.BelowShoulder)

			s, _ = e.ElbowHeight(arm(10, 0))
			So(s, ShouldEqual, features.BelowShoulder)
		})

		Convey("Left-handers are mirrored onto the same clock", func() {
			left := features.New(features.WithThrows(pose.LeftHanded))
			f := pose.NewFrame(1000, 1000, map[pose.Landmark]pose.Point{
				pose.LeftShoulder: pt(500, 500),
				pose.LeftElbow:    pt(400, 500),
			})
			v, err := left.ArmSlot(f)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 12)
		})
	})
}

func TestReleaseSpineFootHead(t *testing.T) {
	Convey("Given a full frame", t, func() {
		e := features.New()
		f := pose.NewFrame(1000, 1080, map[pose.Landmark]pose.Point{
			pose.Nose:          pt(150, 200),
			pose.LeftShoulder:  pt(50, 300),
			pose.RightShoulder: pt(150, 300),
			pose.LeftHip:       pt(50, 500),
			pose.RightHip:      pt(150, 500),
			pose.RightWrist:    pt(300, 100),
			pose.RightAnkle:    pt(100, 1000),
			pose.LeftAnkle:     pt(400, 1000),
			pose.LeftFootIndex: pt(410, 1000),
		})

		Convey("Release height scales by the reference height", func() {
			v, err := e.ReleaseHeight(f)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 900.0/1080.0*7.0, 1e-12)

			v, err = features.New(features.WithReferenceHeight(6)).ReleaseHeight(f)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 5, 1e-12)
		})

		Convey("An upright spine has zero tilt", func() {
			v, err := e.SpineAngle(f)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 0, 1e-12)
		})

		Convey("A leaning spine is reported as a magnitude", func() {
			lean := f.With(pose.LeftShoulder, pt(-50, 400)).With(pose.RightShoulder, pt(50, 400))
			v, err := e.SpineAngle(lean)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 45, 1e-9)
		})

		Convey("A flat front foot has zero angle", func() {
			v, err := e.FootAngle(f)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 0, 1e-12)
		})

		Convey("Head offset is normalised by frame width", func() {
			v, err := e.HeadOffset(f)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 0.05, 1e-12)
		})

		Convey("Centers are midpoints", func() {
			h, err := e.HipsCenter(f)
			So(err, ShouldBeNil)
			So(h.X, ShouldEqual, 100)
			So(h.Y, ShouldEqual, 500)
		})

		Convey("Zero frame dimensions are degenerate", func() {
			z := pose.NewFrame(0, 0, f.Points())
			_, err := e.ReleaseHeight(z)
			So(errors.Is(err, features.ErrDegenerate), ShouldBeTrue)
			_, err = e.HeadOffset(z)
			So(errors.Is(err, features.ErrDegenerate), ShouldBeTrue)
		})

		Convey("Extract keeps failures independent", func() {
			all := e.Extract(f)
			So(all.PushOffAngle.OK, ShouldBeFalse)
			So(errors.Is(all.PushOffAngle.Err, features.ErrMissingLandmark), ShouldBeTrue)
			So(all.ReleaseHeight.OK, ShouldBeTrue)
			So(all.SpineAngle.OK, ShouldBeTrue)
			So(all.Elbow.OK, ShouldBeFalse)
		})
	})
}
