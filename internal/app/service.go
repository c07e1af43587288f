// Package service wires the scoring engine, the profile source and the
// clip pipeline into the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/pitchmech/internal/adapters/mq/queue"
	workerpool "github.com/okian/pitchmech/internal/adapters/mq/worker"
	"github.com/okian/pitchmech/internal/adapters/profilestore"
	"github.com/okian/pitchmech/internal/adapters/repository"
	"github.com/okian/pitchmech/internal/config"
	"github.com/okian/pitchmech/internal/domain/dedupe"
	"github.com/okian/pitchmech/internal/domain/deviation"
	"github.com/okian/pitchmech/internal/domain/fatigue"
	"github.com/okian/pitchmech/internal/domain/features"
	"github.com/okian/pitchmech/internal/domain/model"
	"github.com/okian/pitchmech/internal/domain/profile"
	"github.com/okian/pitchmech/internal/domain/scoring"
	"github.com/okian/pitchmech/pkg/logger"
	"github.com/okian/pitchmech/pkg/metrics"
)

// ErrNotStarted is returned by operations that need the pipeline before
// Start has run.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the scoring engine.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	profiles      profilestore.Store
	closeProfiles func() error
	scorer        scoring.Scorer
	deduper       dedupe.Deduper
	queue         *queue.InMemoryQueue
	pool          *workerpool.Pool
	results       *repository.MemoryResults
	outings       repository.OutingStore

	started bool
	now     func() time.Time
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults come from config.New.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithProfileStore overrides the configured profile source.
func WithProfileStore(store profilestore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.profiles = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source used for submission timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service. Nothing is opened until Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start opens the profile source and starts the clip pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting scoring service...")

	if s.profiles == nil {
		store, closer, err := openProfiles(ctx, s.cfg)
		if err != nil {
			return fmt.Errorf("profile source %s: %w", s.cfg.ProfileSource, err)
		}
		s.profiles, s.closeProfiles = store, closer
	}

	s.scorer = scoring.NewClipScorer(s.profiles,
		scoring.WithLogger(s.logger.Named("scoring")),
		scoring.WithCalculatorOptions(
			deviation.WithExtractorOptions(
				features.WithMinVisibility(s.cfg.MinVisibility),
				features.WithReferenceHeight(s.cfg.ReferenceHeightFt),
			),
			deviation.WithMinValidFrames(s.cfg.MinValidFrames),
			deviation.WithParallelism(s.cfg.FrameParallelism),
		),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.cfg.DedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	s.results = repository.NewMemoryResults(repository.WithCapacity(s.cfg.ResultBufferSize))
	s.outings = repository.NewMemoryOutings()

	s.pool = workerpool.NewPool(s.cfg.WorkerCount, s.queue, s.scorer, s.results,
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	// Workers outlive the request that started the service.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.String("profileSource", s.cfg.ProfileSource),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Int("dedupeSize", s.cfg.DedupeSize),
	)
	return nil
}

// Stop drains the clip queue and closes the profile source.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping scoring service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.closeProfiles != nil {
		if err := s.closeProfiles(); err != nil {
			errs = append(errs, fmt.Errorf("closing profile source: %w", err))
		}
		s.profiles, s.closeProfiles = nil, nil
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
	return errors.Join(errs...)
}

// openProfiles builds the configured profile store and a matching closer.
func openProfiles(ctx context.Context, cfg *config.Config) (profilestore.Store, func() error, error) {
	switch cfg.ProfileSource {
	case config.ProfileSourceStatic:
		store, err := profilestore.NewStaticStore(cfg.ProfilesPath)
		return store, nil, err
	case config.ProfileSourceRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		return profilestore.NewRedisStore(client, cfg.RedisKeyPrefix), client.Close, nil
	case config.ProfileSourcePostgres:
		store, err := profilestore.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown profile_source %q", config.ErrInvalidConfig, cfg.ProfileSource)
	}
}

// SeenAndRecord atomically checks if a clip id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a clip id so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue records clip as pending and queues it for the workers. It
// returns false on backpressure, and the clip's result is then marked
// failed until it is resubmitted.
func (s *Service) Enqueue(ctx context.Context, clip model.Clip) bool { //nolint:gocritic // hugeParam: clips are passed by value through the queue
	if clip.SubmittedAt.IsZero() {
		clip.SubmittedAt = s.now()
	}
	if err := s.results.Put(ctx, model.PendingResult(clip)); err != nil {
		s.logger.Warn(ctx, "rejecting clip", logger.String("clipID", clip.ClipID), logger.Error(err))
		return false
	}

	if !s.queue.Enqueue(ctx, clip) {
		now := s.now()
		rejected := model.PendingResult(clip)
		rejected.Status = model.StatusFailed
		rejected.Error = "queue full"
		rejected.CompletedAt = &now
		_ = s.results.Put(ctx, rejected)
		return false
	}

	s.logger.Debug(ctx, "clip enqueued",
		logger.String("clipID", clip.ClipID),
		logger.String("profile", clip.Key().String()),
		logger.Int("frames", len(clip.Frames)),
	)
	return true
}

// ScoreClip scores clip synchronously.
func (s *Service) ScoreClip(ctx context.Context, clip model.Clip) (deviation.ClipDeviation, error) { //nolint:gocritic // hugeParam: mirrors scoring.Scorer
	if s.scorer == nil {
		return deviation.ClipDeviation{}, ErrNotStarted
	}
	return s.scorer.Score(ctx, clip)
}

// ClipResult returns the latest result for an asynchronously submitted clip.
func (s *Service) ClipResult(ctx context.Context, clipID string) (model.ClipResult, error) {
	return s.results.Get(ctx, clipID)
}

// RecordPitch assesses m against the pitcher's outing so far and appends
// it. A failed assessment leaves the outing untouched and returns an error
// wrapping fatigue.ErrFatigueComputation together with the ERROR assessment.
func (s *Service) RecordPitch(ctx context.Context, pitcherID string, m fatigue.Metrics) (fatigue.Assessment, repository.Outing, error) {
	var assessment fatigue.Assessment
	outing, err := s.outings.Update(ctx, pitcherID, func(o *repository.Outing) error {
		assessment = fatigue.Assess(m, o.Pitches)
		metrics.RecordFatigueAssessment(assessment.Recommendation.String(), assessment.Score)
		if assessment.Err != nil {
			return assessment.Err
		}
		latest := assessment
		o.Pitches = append(o.Pitches, m)
		o.Latest = &latest
		return nil
	})
	if err != nil {
		s.logger.Debug(ctx, "pitch not recorded", logger.String("pitcherID", pitcherID), logger.Error(err))
		return assessment, repository.Outing{}, err
	}
	return assessment, outing, nil
}

// Outing returns the pitcher's current outing.
func (s *Service) Outing(ctx context.Context, pitcherID string) (repository.Outing, error) {
	return s.outings.Get(ctx, pitcherID)
}

// ResetOuting ends the pitcher's current outing.
func (s *Service) ResetOuting(ctx context.Context, pitcherID string) error {
	return s.outings.Reset(ctx, pitcherID)
}

// ListProfiles lists the keys of every available profile.
func (s *Service) ListProfiles(ctx context.Context) ([]profile.Key, error) {
	if s.profiles == nil {
		return nil, ErrNotStarted
	}
	return s.profiles.List(ctx)
}

// GetProfile returns one profile.
func (s *Service) GetProfile(ctx context.Context, pitcherID, pitchType string) (profile.MechanicsProfile, error) {
	if s.profiles == nil {
		return profile.MechanicsProfile{}, ErrNotStarted
	}
	return s.profiles.Get(ctx, pitcherID, pitchType)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"profileSource": s.cfg.ProfileSource,
		"workerCount":   s.cfg.WorkerCount,
		"queueCapacity": s.cfg.QueueSize,
		"dedupeSize":    s.cfg.DedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["resultsStored"] = s.results.Count(ctx)
		stats["outingsTracked"] = s.outings.Count(ctx)
		stats["clipsSeen"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
