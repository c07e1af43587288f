// Package profilestore resolves reference mechanics profiles from a static
// catalog, Redis or Postgres.
package profilestore

import (
	"context"
	"errors"
	"sort"

	"github.com/okian/pitchmech/internal/domain/profile"
	"github.com/okian/pitchmech/pkg/metrics"
)

// Source names reported in metrics and on loaded profiles.
const (
	SourceStatic   = "static"
	SourceRedis    = "redis"
	SourcePostgres = "postgres"
)

// Store reads profiles. A missing profile yields profile.ErrProfileNotFound
// and an invalid stored profile yields profile.ErrIncompleteProfile.
type Store interface {
	Get(ctx context.Context, pitcherID, pitchType string) (profile.MechanicsProfile, error)
	List(ctx context.Context) ([]profile.Key, error)
}

// Writer stores profiles. Stores backed by external systems implement it.
type Writer interface {
	Put(ctx context.Context, p profile.MechanicsProfile) error
}

func recordLookup(source string, err error) {
	switch {
	case err == nil:
		metrics.RecordProfileLookup(source, "hit")
	case errors.Is(err, profile.ErrProfileNotFound):
		metrics.RecordProfileLookup(source, "miss")
	case errors.Is(err, profile.ErrIncompleteProfile):
		metrics.RecordProfileLookup(source, "invalid")
	default:
		metrics.RecordProfileLookup(source, "error")
	}
}

func sortKeys(keys []profile.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PitcherID != keys[j].PitcherID {
			return keys[i].PitcherID < keys[j].PitcherID
		}
		return keys[i].PitchType < keys[j].PitchType
	})
}
