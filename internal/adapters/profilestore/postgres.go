package profilestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pitchmech/internal/domain/profile"
	// postgres driver
	_ "github.com/lib/pq"
)

const (
	pingTimeout     = 5 * time.Second
	maxOpenConns    = 10
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
)

// Schema creates the profile table used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS mechanics_profiles (
	pitcher_id           TEXT NOT NULL,
	pitch_type           TEXT NOT NULL,
	throws               TEXT NOT NULL DEFAULT 'R',
	push_off_angle       DOUBLE PRECISION,
	stride_length        DOUBLE PRECISION,
	arm_slot             DOUBLE PRECISION,
	elbow_height         TEXT,
	release_point_height DOUBLE PRECISION,
	spine_angle          DOUBLE PRECISION,
	landing_foot_angle   DOUBLE PRECISION,
	version              INTEGER NOT NULL DEFAULT 1,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (pitcher_id, pitch_type)
)`

// PostgresStore reads profiles from the mechanics_profiles table. Nullable
// measurement columns map to missing fields so an incomplete row is
// reported rather than scored with zeros.
type PostgresStore struct {
	db *sql.DB
}

var (
	_ Store  = (*PostgresStore)(nil)
	_ Writer = (*PostgresStore)(nil)
)

// OpenPostgres opens and pings a connection pool for dsn.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the profile table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrating profiles: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, pitcherID, pitchType string) (p profile.MechanicsProfile, err error) {
	defer func() { recordLookup(SourcePostgres, err) }()

	key := profile.NewKey(pitcherID, pitchType)
	const query = `
		SELECT pitcher_id, pitch_type, throws, push_off_angle, stride_length, arm_slot,
		       elbow_height, release_point_height, spine_angle, landing_foot_angle, version
		FROM mechanics_profiles
		WHERE pitcher_id = $1 AND pitch_type = $2
	`
	var (
		doc   profile.Document
		elbow sql.NullString
		nums  [6]sql.NullFloat64
	)
	err = s.db.QueryRowContext(ctx, query, key.PitcherID, key.PitchType).Scan(
		&doc.PitcherID, &doc.PitchType, &doc.Throws,
		&nums[0], &nums[1], &nums[2], &elbow, &nums[3], &nums[4], &nums[5], &doc.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.MechanicsProfile{}, fmt.Errorf("%w: %s", profile.ErrProfileNotFound, key)
	}
	if err != nil {
		return profile.MechanicsProfile{}, fmt.Errorf("failed to query profile %s: %w", key, err)
	}

	doc.PushOffAngle = nullable(nums[0])
	doc.StrideLength = nullable(nums[1])
	doc.ArmSlot = nullable(nums[2])
	doc.ElbowHeight = elbow.String
	doc.ReleasePointHeight = nullable(nums[3])
	doc.SpineAngle = nullable(nums[4])
	doc.LandingFootAngle = nullable(nums[5])
	doc.Source = SourcePostgres
	return doc.Build()
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]profile.Key, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pitcher_id, pitch_type FROM mechanics_profiles ORDER BY pitcher_id, pitch_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var keys []profile.Key
	for rows.Next() {
		var k profile.Key
		if err := rows.Scan(&k.PitcherID, &k.PitchType); err != nil {
			return nil, fmt.Errorf("failed to scan profile key: %w", err)
		}
		keys = append(keys, profile.NewKey(k.PitcherID, k.PitchType))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return keys, nil
}

// Put implements Writer as an upsert.
func (s *PostgresStore) Put(ctx context.Context, p profile.MechanicsProfile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("postgres put: %w", err)
	}
	const query = `
		INSERT INTO mechanics_profiles (pitcher_id, pitch_type, throws, push_off_angle, stride_length,
			arm_slot, elbow_height, release_point_height, spine_angle, landing_foot_angle, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (pitcher_id, pitch_type) DO UPDATE SET
			throws = EXCLUDED.throws,
			push_off_angle = EXCLUDED.push_off_angle,
			stride_length = EXCLUDED.stride_length,
			arm_slot = EXCLUDED.arm_slot,
			elbow_height = EXCLUDED.elbow_height,
			release_point_height = EXCLUDED.release_point_height,
			spine_angle = EXCLUDED.spine_angle,
			landing_foot_angle = EXCLUDED.landing_foot_angle,
			version = EXCLUDED.version,
			updated_at = now()
	`
	_, err := s.db.ExecContext(ctx, query,
		p.Key.PitcherID, p.Key.PitchType, p.Throws.String(), p.PushOffAngle, p.StrideLength,
		p.ArmSlot, p.ElbowHeight.String(), p.ReleasePointHeight, p.SpineAngle, p.LandingFootAngle, p.Version)
	if err != nil {
		return fmt.Errorf("failed to upsert profile %s: %w", p.Key, err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
