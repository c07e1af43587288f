package profilestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/pitchmech/internal/domain/profile"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "pitchmech:profile"
	scanBatch        = 100
)

// RedisStore keeps one JSON profile document per key
// "<prefix>:<PITCHER>:<PITCH_TYPE>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

var (
	_ Store  = (*RedisStore)(nil)
	_ Writer = (*RedisStore)(nil)
)

// NewRedisStore wraps client. An empty prefix uses "pitchmech:profile".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: strings.TrimSuffix(prefix, ":")}
}

func (s *RedisStore) key(k profile.Key) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, k.PitcherID, k.PitchType)
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, pitcherID, pitchType string) (p profile.MechanicsProfile, err error) {
	defer func() { recordLookup(SourceRedis, err) }()

	key := profile.NewKey(pitcherID, pitchType)
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return profile.MechanicsProfile{}, fmt.Errorf("%w: %s", profile.ErrProfileNotFound, key)
	}
	if err != nil {
		return profile.MechanicsProfile{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	var doc profile.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return profile.MechanicsProfile{}, fmt.Errorf("%w: %s: decoding: %v", profile.ErrIncompleteProfile, key, err)
	}
	if doc.Source == "" {
		doc.Source = SourceRedis
	}
	return doc.Build()
}

// Put implements Writer.
func (s *RedisStore) Put(ctx context.Context, p profile.MechanicsProfile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	data, err := json.Marshal(p.Document())
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	return s.client.Set(ctx, s.key(p.Key), data, 0).Err()
}

// List implements Store by scanning the key prefix.
func (s *RedisStore) List(ctx context.Context) ([]profile.Key, error) {
	var keys []profile.Key
	iter := s.client.Scan(ctx, 0, s.prefix+":*", scanBatch).Iterator()
	for iter.Next(ctx) {
		rest := strings.TrimPrefix(iter.Val(), s.prefix+":")
		pitcher, pitch, ok := strings.Cut(rest, ":")
		if !ok || pitcher == "" || pitch == "" {
			continue
		}
		keys = append(keys, profile.NewKey(pitcher, pitch))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sortKeys(keys)
	return keys, nil
}
