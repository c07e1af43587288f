package repository

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/okian/pitchmech/internal/domain/model"
	"github.com/okian/pitchmech/pkg/metrics"
)

const defaultResultCapacity = 10_000

// MemoryResults is a bounded ResultStore. Replacing a result keeps its
// original position in the eviction order.
type MemoryResults struct {
	mu       sync.RWMutex
	items    map[string]*list.Element
	order    *list.List
	capacity int
}

var _ ResultStore = (*MemoryResults)(nil)

// NewMemoryResults creates an empty store.
func NewMemoryResults(opts ...ResultOption) *MemoryResults {
	s := &MemoryResults{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: defaultResultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put implements ResultStore.
func (s *MemoryResults) Put(_ context.Context, r model.ClipResult) error {
	if r.ClipID == "" {
		return fmt.Errorf("%w: empty clip id", ErrInvalidID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[r.ClipID]; ok {
		el.Value = r
		return nil
	}
	for s.order.Len() >= s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.items, oldest.Value.(model.ClipResult).ClipID)
	}
	s.items[r.ClipID] = s.order.PushBack(r)
	metrics.UpdateResultsStored(s.order.Len())
	return nil
}

// Get implements ResultStore.
func (s *MemoryResults) Get(_ context.Context, clipID string) (model.ClipResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.items[clipID]
	if !ok {
		return model.ClipResult{}, fmt.Errorf("clip %q: %w", clipID, ErrNotFound)
	}
	return el.Value.(model.ClipResult), nil
}

// Count implements ResultStore.
func (s *MemoryResults) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}
