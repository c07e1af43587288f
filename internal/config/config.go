// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New returns a Config populated with defaults.
//   - Load layers a YAML file and environment variables over the defaults.
//   - Errors returned by Load wrap this package's sentinel errors.
package config

import (
	"runtime"
)

// Profile source names accepted by ProfileSource.
const (
	ProfileSourceStatic   = "static"
	ProfileSourceRedis    = "redis"
	ProfileSourcePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// CORSAllowedOrigins lists origins allowed to call the API from a browser.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// QueueSize bounds the in-memory clip job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of clip scoring workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the clip id idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`
	// ResultBufferSize bounds the number of clip results kept for polling.
	ResultBufferSize int `koanf:"result_buffer_size"`

	// MinVisibility is the landmark confidence threshold.
	MinVisibility float64 `koanf:"min_visibility"`
	// ReferenceHeightFt scales release height from pixels to feet.
	ReferenceHeightFt float64 `koanf:"reference_height_ft"`
	// MinValidFrames is the number of qualifying frames a clip needs.
	MinValidFrames int `koanf:"min_valid_frames"`
	// FrameParallelism bounds goroutines used per clip.
	FrameParallelism int `koanf:"frame_parallelism"`

	// ProfileSource selects where mechanics profiles come from.
	ProfileSource string `koanf:"profile_source"`
	// ProfilesPath is an optional YAML catalog for the static source. Empty
	// uses the built-in catalog.
	ProfilesPath string `koanf:"profiles_path"`
	// RedisAddr, RedisDB and RedisKeyPrefix configure the redis source.
	RedisAddr      string `koanf:"redis_addr"`
	RedisDB        int    `koanf:"redis_db"`
	RedisKeyPrefix string `koanf:"redis_key_prefix"`
	// PostgresDSN configures the postgres source.
	PostgresDSN string `koanf:"postgres_dsn"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		CORSAllowedOrigins: []string{"*"},
		QueueSize:          1_024,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         50_000,
		ResultBufferSize:   10_000,
		MinVisibility:      0.5,
		ReferenceHeightFt:  7.0,
		MinValidFrames:     1,
		FrameParallelism:   runtime.NumCPU(),
		ProfileSource:      ProfileSourceStatic,
		RedisAddr:          "localhost:6379",
		RedisKeyPrefix:     "pitchmech:profile",
	}
}
