// Package posesource decodes pose-estimation output into clips.
//
// The accepted document is MediaPipe-style JSON:
//
//	{"clip_id": "...", "pitcher_id": "...", "pitch_type": "...",
//	 "width": 1920, "height": 1080,
//	 "frames": [{"landmarks": {"LEFT_HIP": {"x": 0, "y": 0, "visibility": 0.9}}}]}
//
// Landmark names are matched case-insensitively; unknown names are ignored.
// A frame may override width and height.
package posesource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/okian/pitchmech/internal/domain/model"
	"github.com/okian/pitchmech/internal/domain/pose"
)

// ErrMalformedClip is returned for documents that cannot describe a clip.
var ErrMalformedClip = errors.New("malformed clip")

// Document is the wire form of a clip.
type Document struct {
	ClipID    string          `json:"clip_id,omitempty"`
	PitcherID string          `json:"pitcher_id"`
	PitchType string          `json:"pitch_type"`
	Width     float64         `json:"width"`
	Height    float64         `json:"height"`
	Frames    []FrameDocument `json:"frames"`
}

// FrameDocument is the wire form of one frame.
type FrameDocument struct {
	Width     float64               `json:"width,omitempty"`
	Height    float64               `json:"height,omitempty"`
	Landmarks map[string]pose.Point `json:"landmarks"`
}

// Decode reads one clip document from r.
func Decode(r io.Reader) (model.Clip, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return model.Clip{}, fmt.Errorf("%w: %w", ErrMalformedClip, err)
	}
	return doc.Clip()
}

// Clip validates the document and converts it.
func (d Document) Clip() (model.Clip, error) {
	var problems []string
	if strings.TrimSpace(d.PitcherID) == "" {
		problems = append(problems, "pitcher_id is required")
	}
	if strings.TrimSpace(d.PitchType) == "" {
		problems = append(problems, "pitch_type is required")
	}

	frames := make([]pose.Frame, len(d.Frames))
	for i, fd := range d.Frames {
		w, h := d.Width, d.Height
		if fd.Width != 0 {
			w = fd.Width
		}
		if fd.Height != 0 {
			h = fd.Height
		}
		if !positive(w) || !positive(h) {
			problems = append(problems, fmt.Sprintf("frame %d: width and height must be positive", i))
			continue
		}

		points := make(map[pose.Landmark]pose.Point, len(fd.Landmarks))
		for name, p := range fd.Landmarks {
			l, ok := pose.ParseLandmark(name)
			if !ok {
				continue
			}
			if !finite(p.X) || !finite(p.Y) || !finite(p.Visibility) {
				problems = append(problems, fmt.Sprintf("frame %d: %s has a non-finite value", i, name))
				continue
			}
			points[l] = p
		}
		frames[i] = pose.NewFrame(w, h, points)
	}

	if len(problems) > 0 {
		return model.Clip{}, fmt.Errorf("%w: %s", ErrMalformedClip, strings.Join(problems, "; "))
	}
	return model.Clip{
		ClipID:      strings.TrimSpace(d.ClipID),
		PitcherID:   d.PitcherID,
		PitchType:   d.PitchType,
		Frames:      frames,
		SubmittedAt: time.Now().UTC(),
	}, nil
}

// FromClip returns the wire form of c. Frame dimensions are written per
// frame.
func FromClip(c model.Clip) Document {
	doc := Document{
		ClipID:    c.ClipID,
		PitcherID: c.PitcherID,
		PitchType: c.PitchType,
		Frames:    make([]FrameDocument, len(c.Frames)),
	}
	for i, f := range c.Frames {
		lm := make(map[string]pose.Point, f.Len())
		for l, p := range f.Points() {
			lm[l.String()] = p
		}
		doc.Frames[i] = FrameDocument{Width: f.Width, Height: f.Height, Landmarks: lm}
	}
	if len(c.Frames) > 0 {
		doc.Width, doc.Height = c.Frames[0].Width, c.Frames[0].Height
	}
	return doc
}

// Encode writes c as JSON.
func Encode(w io.Writer, c model.Clip) error {
	if err := json.NewEncoder(w).Encode(FromClip(c)); err != nil {
		return fmt.Errorf("encoding clip %s: %w", c.ClipID, err)
	}
	return nil
}

func positive(v float64) bool { return v > 0 && finite(v) }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
