package variance_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/okian/pitchmech/internal/domain/variance"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given deviation percentages", t, func() {
		Convey("Band boundaries are exact", func() {
			cases := []struct {
				pct  float64
				want variance.Category
			}{
				{0, variance.None},
				{1e-9, variance.SlightlyOff},
				{10, variance.SlightlyOff},
				{10.0001, variance.LessThanIdeal},
				{25, variance.LessThanIdeal},
				{25.5, variance.NeedsWork},
				{50, variance.NeedsWork},
				{75, variance.MajorIssues},
				{75.01, variance.CriticalFlaws},
				{100, variance.CriticalFlaws},
			}
			for _, c := range cases {
				got, err := variance.Classify(c.pct)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c.want)
			}
		})

		Convey("Classification is monotonic", func() {
			prev := variance.None
			for pct := 0.0; pct <= 100; pct += 0.25 {
				got, err := variance.Classify(pct)
				So(err, ShouldBeNil)
				So(int(got), ShouldBeGreaterThanOrEqualTo, int(prev))
				prev = got
			}
		})

		Convey("Out of range input is a contract violation", func() {
			for _, pct := range []float64{-0.001, 100.0001, math.NaN(), math.Inf(1)} {
				_, err := variance.Classify(pct)
				So(errors.Is(err, variance.ErrOutOfRange), ShouldBeTrue)
			}
		})

		Convey("Ranges describe the bands", func() {
			lo, hi := variance.LessThanIdeal.Range()
			So(lo, ShouldEqual, 10)
			So(hi, ShouldEqual, 25)
			lo, hi = variance.None.Range()
			So(lo, ShouldEqual, 0)
			So(hi, ShouldEqual, 0)
		})
	})
}

func TestLabels(t *testing.T) {
	Convey("Given category labels", t, func() {
		Convey("Names and labels both parse", func() {
			for _, c := range variance.Categories() {
				got, err := variance.ParseLabel(c.String())
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c)

				got, err = variance.ParseLabel(c.Label())
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c)
			}
			got, err := variance.ParseLabel("  less THAN ideal ")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, variance.LessThanIdeal)
		})

		Convey("Unknown labels are rejected", func() {
			_, err := variance.ParseLabel("Pretty Good")
			So(errors.Is(err, variance.ErrUnknownLabel), ShouldBeTrue)
		})

		Convey("Categories marshal as names in JSON", func() {
			b, err := json.Marshal(map[string]variance.Category{"c": variance.MajorIssues})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"c":"MAJOR_ISSUES"}`)

			var out map[string]variance.Category
			So(json.Unmarshal(b, &out), ShouldBeNil)
			So(out["c"], ShouldEqual, variance.MajorIssues)
		})
	})
}

func TestParseAssessment(t *testing.T) {
	Convey("Given a written report", t, func() {
		Convey("The verdict line is found", func() {
			text := "Leg Drive: 12%\nArm: 30%\n\nMechanics Assessment: Needs Work\nNotes: tired"
			got, err := variance.ParseAssessment(text)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, variance.NeedsWork)
		})

		Convey("Lines longer than the default scanner buffer are read", func() {
			text := strings.Repeat("x", 100_000) + "\nMechanics Assessment: Needs Work"
			got, err := variance.ParseAssessment(text)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, variance.NeedsWork)
		})

		Convey("Markdown decoration is tolerated", func() {
			got, err := variance.ParseAssessment("**Mechanics Assessment:** [Slightly Off]")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, variance.SlightlyOff)
		})

		Convey("A report without a verdict is rejected", func() {
			_, err := variance.ParseAssessment("Arm: fine")
			So(errors.Is(err, variance.ErrNoAssessment), ShouldBeTrue)
		})

		Convey("An unknown verdict is rejected", func() {
			_, err := variance.ParseAssessment("Mechanics Assessment: Superb")
			So(errors.Is(err, variance.ErrUnknownLabel), ShouldBeTrue)
		})
	})
}
