// Package api serves the scoring engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/okian/pitchmech/internal/adapters/repository"
	"github.com/okian/pitchmech/internal/domain/dedupe"
	"github.com/okian/pitchmech/internal/domain/deviation"
	"github.com/okian/pitchmech/internal/domain/fatigue"
	"github.com/okian/pitchmech/internal/domain/model"
	"github.com/okian/pitchmech/internal/domain/profile"
	"github.com/okian/pitchmech/pkg/logger"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 32 << 20
	corsMaxAge            = 300
)

// ClipDependencies score and track clips.
type ClipDependencies interface {
	dedupe.Deduper

	// Enqueue records the clip as pending and queues it. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, clip model.Clip) bool
	ScoreClip(ctx context.Context, clip model.Clip) (deviation.ClipDeviation, error)
	ClipResult(ctx context.Context, clipID string) (model.ClipResult, error)
}

// OutingDependencies track pitcher outings.
type OutingDependencies interface {
	// RecordPitch assesses m against the outing so far and appends it. When
	// the assessment fails the pitch is not appended and the error wraps
	// fatigue.ErrFatigueComputation.
	RecordPitch(ctx context.Context, pitcherID string, m fatigue.Metrics) (fatigue.Assessment, repository.Outing, error)
	Outing(ctx context.Context, pitcherID string) (repository.Outing, error)
	ResetOuting(ctx context.Context, pitcherID string) error
}

// ProfileDependencies read reference profiles.
type ProfileDependencies interface {
	ListProfiles(ctx context.Context) ([]profile.Key, error)
	GetProfile(ctx context.Context, pitcherID, pitchType string) (profile.MechanicsProfile, error)
}

// Dependencies bundles everything the handlers need.
type Dependencies interface {
	ClipDependencies
	OutingDependencies
	ProfileDependencies
}

// Option configures the Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed browser origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	clipsHandler    *ClipsHandler
	outingsHandler  *OutingsHandler
	profilesHandler *ProfilesHandler
	varianceHandler *VarianceHandler

	corsOrigins []string
	timeout     time.Duration
	maxBody     int64
	logger      logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		corsOrigins: []string{"*"},
		timeout:     defaultRequestTimeout,
		maxBody:     defaultMaxBodyBytes,
		logger:      logger.Get().Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.clipsHandler = NewClipsHandler(deps, s.maxBody)
	s.outingsHandler = NewOutingsHandler(deps)
	s.profilesHandler = NewProfilesHandler(deps)
	s.varianceHandler = NewVarianceHandler()
	return s
}

// Router returns a chi router with middleware and every route attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(s.timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         corsMaxAge,
	}))
	r.Use(MetricsMiddleware)
	s.Register(r)
	return r
}

// Register attaches all business routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/clips", s.clipsHandler.HandleSubmitClip)
		r.Post("/clips/score", s.clipsHandler.HandleScoreClip)
		r.Get("/clips/{clipID}", s.clipsHandler.HandleGetClip)

		r.Post("/outings/{pitcherID}/pitches", s.outingsHandler.HandleRecordPitch)
		r.Get("/outings/{pitcherID}", s.outingsHandler.HandleGetOuting)
		r.Delete("/outings/{pitcherID}", s.outingsHandler.HandleResetOuting)

		r.Get("/profiles", s.profilesHandler.HandleListProfiles)
		r.Get("/profiles/{pitcherID}/{pitchType}", s.profilesHandler.HandleGetProfile)

		r.Get("/variance", s.varianceHandler.HandleClassify)
		r.Post("/variance/assessment", s.varianceHandler.HandleParseAssessment)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
