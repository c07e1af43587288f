// Package repository keeps clip results and pitcher outings in memory.
package repository

import (
	"context"

	"github.com/okian/pitchmech/internal/domain/model"
)

// ResultStore holds clip results for polling.
type ResultStore interface {
	// Put inserts or replaces the result for r.ClipID.
	Put(ctx context.Context, r model.ClipResult) error
	// Get returns the result for clipID or ErrNotFound.
	Get(ctx context.Context, clipID string) (model.ClipResult, error)
	// Count returns the number of stored results.
	Count(ctx context.Context) int
}

// OutingStore tracks the pitches of each pitcher's current outing.
type OutingStore interface {
	// Update runs fn on the pitcher's outing under the pitcher's lock and
	// stores the result when fn succeeds. A missing outing starts empty.
	Update(ctx context.Context, pitcherID string, fn func(o *Outing) error) (Outing, error)
	// Get returns the outing or ErrNotFound.
	Get(ctx context.Context, pitcherID string) (Outing, error)
	// Reset discards the outing. Resetting an unknown pitcher returns ErrNotFound.
	Reset(ctx context.Context, pitcherID string) error
	// Count returns the number of outings tracked.
	Count(ctx context.Context) int
}
