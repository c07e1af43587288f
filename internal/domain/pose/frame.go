package pose

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a detected landmark position in pixel space (y grows downward)
// with the detector's visibility confidence in [0,1].
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Vec returns the point position as a 2D vector.
func (p Point) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Frame is one sampled instant of the delivery. A Frame is a value; the
// zero Frame has no landmarks and no dimensions.
type Frame struct {
	points  [numLandmarks]Point
	present uint32

	// Width and Height are the source image dimensions in pixels.
	Width  float64
	Height float64
}

// NewFrame builds a frame from detected points. Unsupported landmark keys are
// dropped.
func NewFrame(width, height float64, points map[Landmark]Point) Frame {
	f := Frame{Width: width, Height: height}
	for l, p := range points {
		if !l.Valid() {
			continue
		}
		f.points[l] = p
		f.present |= 1 << l
	}
	return f
}

// With returns a copy of f with l set to p. f itself is left unchanged.
func (f Frame) With(l Landmark, p Point) Frame {
	if !l.Valid() {
		return f
	}
	f.points[l] = p
	f.present |= 1 << l
	return f
}

// Without returns a copy of f with l removed.
func (f Frame) Without(l Landmark) Frame {
	if !l.Valid() {
		return f
	}
	f.points[l] = Point{}
	f.present &^= 1 << l
	return f
}

// Lookup returns the point for l and whether the detector reported it.
func (f Frame) Lookup(l Landmark) (Point, bool) {
	if !l.Valid() || f.present&(1<<l) == 0 {
		return Point{}, false
	}
	return f.points[l], true
}

// Has reports whether l was detected at all.
func (f Frame) Has(l Landmark) bool {
	_, ok := f.Lookup(l)
	return ok
}

// Visible reports whether every landmark in ls is present with visibility at
// or above minVisibility.
func (f Frame) Visible(minVisibility float64, ls ...Landmark) bool {
	for _, l := range ls {
		p, ok := f.Lookup(l)
		if !ok || p.Visibility < minVisibility {
			return false
		}
	}
	return true
}

// Len returns the number of detected landmarks.
func (f Frame) Len() int {
	n := 0
	for l := Landmark(0); l < numLandmarks; l++ {
		if f.present&(1<<l) != 0 {
			n++
		}
	}
	return n
}

// Points returns a copy of the detected landmarks.
func (f Frame) Points() map[Landmark]Point {
	out := make(map[Landmark]Point, f.Len())
	for l := Landmark(0); l < numLandmarks; l++ {
		if p, ok := f.Lookup(l); ok {
			out[l] = p
		}
	}
	return out
}
