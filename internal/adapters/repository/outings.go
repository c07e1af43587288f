package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pitchmech/internal/domain/fatigue"
	"github.com/okian/pitchmech/pkg/metrics"
)

// Outing is one pitcher's appearance. Pitches are ordered oldest first.
type Outing struct {
	PitcherID string              `json:"pitcher_id"`
	Pitches   []fatigue.Metrics   `json:"pitches"`
	Latest    *fatigue.Assessment `json:"latest,omitempty"`
	StartedAt time.Time           `json:"started_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func (o Outing) clone() Outing {
	o.Pitches = append([]fatigue.Metrics(nil), o.Pitches...)
	if o.Latest != nil {
		a := *o.Latest
		a.Details = append([]string(nil), a.Details...)
		o.Latest = &a
	}
	return o
}

type outingEntry struct {
	mu     sync.Mutex
	outing Outing
	live   bool
}

// MemoryOutings is an OutingStore with one lock per pitcher, so updates
// for different pitchers do not contend.
type MemoryOutings struct {
	mu      sync.Mutex
	entries map[string]*outingEntry
	live    atomic.Int64
	now     func() time.Time
}

var _ OutingStore = (*MemoryOutings)(nil)

// NewMemoryOutings creates an empty store.
func NewMemoryOutings() *MemoryOutings {
	return &MemoryOutings{
		entries: make(map[string]*outingEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func normaliseID(id string) string { return strings.ToUpper(strings.TrimSpace(id)) }

func (s *MemoryOutings) entry(id string, create bool) *outingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok && create {
		e = &outingEntry{}
		s.entries[id] = e
	}
	return e
}

// Update implements OutingStore.
func (s *MemoryOutings) Update(_ context.Context, pitcherID string, fn func(o *Outing) error) (Outing, error) {
	id := normaliseID(pitcherID)
	if id == "" {
		return Outing{}, fmt.Errorf("%w: empty pitcher id", ErrInvalidID)
	}
	e := s.entry(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.outing.clone()
	if !e.live {
		now := s.now()
		work = Outing{PitcherID: id, StartedAt: now, UpdatedAt: now}
	}
	if err := fn(&work); err != nil {
		return Outing{}, err
	}
	work.PitcherID = id
	work.UpdatedAt = s.now()
	e.outing = work
	if !e.live {
		e.live = true
		metrics.UpdateOutingsTracked(int(s.live.Add(1)))
	}
	return work.clone(), nil
}

// Get implements OutingStore.
func (s *MemoryOutings) Get(_ context.Context, pitcherID string) (Outing, error) {
	id := normaliseID(pitcherID)
	e := s.entry(id, false)
	if e == nil {
		return Outing{}, fmt.Errorf("outing %q: %w", id, ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.live {
		return Outing{}, fmt.Errorf("outing %q: %w", id, ErrNotFound)
	}
	return e.outing.clone(), nil
}

// Reset implements OutingStore.
func (s *MemoryOutings) Reset(_ context.Context, pitcherID string) error {
	id := normaliseID(pitcherID)
	e := s.entry(id, false)
	if e == nil {
		return fmt.Errorf("outing %q: %w", id, ErrNotFound)
	}
	e.mu.Lock()
	wasLive := e.live
	e.live = false
	e.outing = Outing{}
	e.mu.Unlock()
	if !wasLive {
		return fmt.Errorf("outing %q: %w", id, ErrNotFound)
	}
	metrics.UpdateOutingsTracked(int(s.live.Add(-1)))
	return nil
}

// Count implements OutingStore.
func (s *MemoryOutings) Count(context.Context) int { return int(s.live.Load()) }
