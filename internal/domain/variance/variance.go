// Package variance maps a deviation percentage onto six ordered qualitative
// bands and parses those bands back out of free-text assessments.
package variance

import (
	"bufio"
	"fmt"
	"math"
	"strings"
)

// Category is an ordered deviation band. Larger values are worse.
type Category uint8

const (
	None Category = iota
	SlightlyOff
	LessThanIdeal
	NeedsWork
	MajorIssues
	CriticalFlaws
)

type band struct {
	upper float64 // inclusive
	name  string
	label string
}

var bands = [...]band{
	None:          {0, "NONE", "None"},
	SlightlyOff:   {10, "SLIGHTLY_OFF", "Slightly Off"},
	LessThanIdeal: {25, "LESS_THAN_IDEAL", "Less than Ideal"},
	NeedsWork:     {50, "NEEDS_WORK", "Needs Work"},
	MajorIssues:   {75, "MAJOR_ISSUES", "Major Issues"},
	CriticalFlaws: {100, "CRITICAL_FLAWS", "Critical Flaws"},
}

// Categories returns every category in ascending order.
func Categories() []Category {
	return []Category{None, SlightlyOff, LessThanIdeal, NeedsWork, MajorIssues, CriticalFlaws}
}

// String returns the canonical upper-case name.
func (c Category) String() string {
	if int(c) >= len(bands) {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return bands[c].name
}

// Label returns the human-readable name used in reports.
func (c Category) Label() string {
	if int(c) >= len(bands) {
		return c.String()
	}
	return bands[c].label
}

// Range returns the band bounds as (lower exclusive, upper inclusive). The
// None band is the single point 0.
func (c Category) Range() (lo, hi float64) {
	if c == None || int(c) >= len(bands) {
		return 0, 0
	}
	return bands[c-1].upper, bands[c].upper
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Classify maps pct to its band. pct must be in [0,100].
func Classify(pct float64) (Category, error) {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return None, fmt.Errorf("%w: %v", ErrOutOfRange, pct)
	}
	for c, b := range bands {
		if pct <= b.upper {
			return Category(c), nil
		}
	}
	return CriticalFlaws, nil
}

// ParseLabel accepts either the canonical name or the human label, in any
// case.
func ParseLabel(s string) (Category, error) {
	n := normalise(s)
	for c, b := range bands {
		if n == normalise(b.name) || n == normalise(b.label) {
			return Category(c), nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}

func normalise(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// AssessmentPrefix introduces the overall verdict line of a written report.
const AssessmentPrefix = "Mechanics Assessment:"

// ParseAssessment finds the "Mechanics Assessment: <label>" line in a report
// and returns its category.
func ParseAssessment(text string) (Category, error) {
	sc := bufio.NewScanner(strings.NewReader(text))
	// A single line may be as long as the whole report.
	sc.Buffer(nil, len(text)+1)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimLeft(line, "#*- ")
		if !strings.HasPrefix(strings.ToLower(line), strings.ToLower(AssessmentPrefix)) {
			continue
		}
		value := strings.TrimSpace(line[len(AssessmentPrefix):])
		value = strings.Trim(value, "*[] ")
		return ParseLabel(value)
	}
	if err := sc.Err(); err != nil {
		return None, fmt.Errorf("scan assessment: %w", err)
	}
	return None, ErrNoAssessment
}
