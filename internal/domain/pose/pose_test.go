package pose_test

import (
	"testing"

	"github.com/okian/pitchmech/internal/domain/pose"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseLandmark(t *testing.T) {
	Convey("Given detector landmark names", t, func() {
		Convey("Canonical names resolve", func() {
			l, ok := pose.ParseLandmark("RIGHT_KNEE")
			So(ok, ShouldBeTrue)
			So(l, ShouldEqual, pose.RightKnee)
		})

		Convey("Lookup is case-insensitive", func() {
			l, ok := pose.ParseLandmark("Nose")
			So(ok, ShouldBeTrue)
			So(l, ShouldEqual, pose.Nose)

			l, ok = pose.ParseLandmark(" left_foot_index ")
			So(ok, ShouldBeTrue)
			So(l, ShouldEqual, pose.LeftFootIndex)
		})

		Convey("Unknown names are rejected", func() {
			_, ok := pose.ParseLandmark("LEFT_PINKY")
			So(ok, ShouldBeFalse)
		})

		Convey("Every landmark round-trips through its name", func() {
			for _, l := range pose.All() {
				got, ok := pose.ParseLandmark(l.String())
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, l)
			}
		})
	})
}

func TestFrame(t *testing.T) {
	Convey("Given a frame with a few landmarks", t, func() {
		f := pose.NewFrame(1920, 1080, map[pose.Landmark]pose.Point{
			pose.RightHip:  {X: 100, Y: 200, Visibility: 0.9},
			pose.RightKnee: {X: 110, Y: 300, Visibility: 0.4},
		})

		Convey("Lookup reports presence", func() {
			p, ok := f.Lookup(pose.RightHip)
			So(ok, ShouldBeTrue)
			So(p.X, ShouldEqual, 100)

			_, ok = f.Lookup(pose.LeftHip)
			So(ok, ShouldBeFalse)
			So(f.Len(), ShouldEqual, 2)
		})

		Convey("Visible applies the threshold to every landmark", func() {
			So(f.Visible(0.5, pose.RightHip), ShouldBeTrue)
			So(f.Visible(0.5, pose.RightHip, pose.RightKnee), ShouldBeFalse)
			So(f.Visible(0.4, pose.RightHip, pose.RightKnee), ShouldBeTrue)
			So(f.Visible(0.0, pose.RightAnkle), ShouldBeFalse)
		})

		Convey("With and Without do not mutate the original", func() {
			g := f.With(pose.Nose, pose.Point{X: 1, Y: 2, Visibility: 1})
			h := f.Without(pose.RightHip)

			So(f.Has(pose.Nose), ShouldBeFalse)
			So(g.Has(pose.Nose), ShouldBeTrue)
			So(f.Has(pose.RightHip), ShouldBeTrue)
			So(h.Has(pose.RightHip), ShouldBeFalse)
		})

		Convey("Points returns a detached copy", func() {
			pts := f.Points()
			So(pts, ShouldHaveLength, 2)
			delete(pts, pose.RightHip)
			So(f.Has(pose.RightHip), ShouldBeTrue)
		})
	})
}

func TestHandSides(t *testing.T) {
	Convey("Given the two throwing hands", t, func() {
		Convey("Right-handers throw from the right side", func() {
			s := pose.RightHanded.Sides()
			So(s.BackKnee, ShouldEqual, pose.RightKnee)
			So(s.FrontAnkle, ShouldEqual, pose.LeftAnkle)
		})

		Convey("Left-handers are mirrored", func() {
			s := pose.LeftHanded.Sides()
			So(s.BackKnee, ShouldEqual, pose.LeftKnee)
			So(s.FrontFootIndex, ShouldEqual, pose.RightFootIndex)
		})

		Convey("ParseHand accepts short and long forms", func() {
			h, ok := pose.ParseHand("L")
			So(ok, ShouldBeTrue)
			So(h, ShouldEqual, pose.LeftHanded)

			h, ok = pose.ParseHand("")
			So(ok, ShouldBeTrue)
			So(h, ShouldEqual, pose.RightHanded)

			_, ok = pose.ParseHand("both")
			So(ok, ShouldBeFalse)
		})
	})
}
