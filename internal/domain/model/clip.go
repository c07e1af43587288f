// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/pitchmech/internal/domain/deviation"
	"github.com/okian/pitchmech/internal/domain/pose"
	"github.com/okian/pitchmech/internal/domain/profile"
)

// Clip is a pose-estimated pitch delivery submitted for scoring.
type Clip struct {
	ClipID      string
	PitcherID   string
	PitchType   string
	Frames      []pose.Frame
	SubmittedAt time.Time
}

// Key returns the profile key the clip is scored against.
func (c Clip) Key() profile.Key { return profile.NewKey(c.PitcherID, c.PitchType) }

// ClipStatus is the lifecycle state of a submitted clip.
type ClipStatus string

const (
	StatusPending    ClipStatus = "pending"
	StatusScored     ClipStatus = "scored"
	StatusUnscorable ClipStatus = "unscorable"
	StatusFailed     ClipStatus = "failed"
)

// Done reports whether the status is final.
func (s ClipStatus) Done() bool { return s != StatusPending }

// ClipResult is what a caller polls for after an asynchronous submission.
// Deviation is set for scored and unscorable clips.
type ClipResult struct {
	ClipID      string                   `json:"clip_id"`
	Profile     profile.Key              `json:"profile"`
	Status      ClipStatus               `json:"status"`
	Deviation   *deviation.ClipDeviation `json:"deviation,omitempty"`
	Error       string                   `json:"error,omitempty"`
	SubmittedAt time.Time                `json:"submitted_at"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
}

// PendingResult returns the initial result recorded when c is accepted.
func PendingResult(c Clip) ClipResult {
	return ClipResult{
		ClipID:      c.ClipID,
		Profile:     c.Key(),
		Status:      StatusPending,
		SubmittedAt: c.SubmittedAt,
	}
}
