package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Database holds the database connection pool and provides access to repositories
type Database struct {
	Pool *pgxpool.Pool

	Predictions *PredictionRepository
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the connection string for cfg
func (c Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// NewDatabase creates a new database connection pool, applies the schema and initializes repositories
func NewDatabase(ctx context.Context, cfg Config) (*Database, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// A run writes one report at a time
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Str("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Successfully connected to database")

	db := &Database{
		Pool: pool,
	}

	if err := db.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	db.Predictions = &PredictionRepository{db: db}

	return db, nil
}

// EnsureSchema creates the archive tables when missing
func (db *Database) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		log.Info().Msg("Database connection pool closed")
	}
}

// Health checks if the database is healthy
func (db *Database) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// PoolStats returns database pool statistics
func (db *Database) PoolStats() map[string]interface{} {
	stat := db.Pool.Stat()
	return map[string]interface{}{
		"total_conns":    stat.TotalConns(),
		"acquired_conns": stat.AcquiredConns(),
		"idle_conns":     stat.IdleConns(),
		"max_conns":      stat.MaxConns(),
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS prediction_runs (
	run_id      UUID PRIMARY KEY,
	match_date  DATE NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	predictions INTEGER NOT NULL,
	failures    INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS predictions (
	id           BIGSERIAL PRIMARY KEY,
	run_id       UUID NOT NULL REFERENCES prediction_runs(run_id) ON DELETE CASCADE,
	fixture_id   INTEGER NOT NULL,
	league_id    INTEGER NOT NULL,
	league_name  TEXT NOT NULL,
	kickoff      TIMESTAMPTZ NOT NULL,
	home_team_id INTEGER NOT NULL,
	home_team    TEXT NOT NULL,
	away_team_id INTEGER NOT NULL,
	away_team    TEXT NOT NULL,
	home_form    TEXT NOT NULL,
	away_form    TEXT NOT NULL,
	h2h          TEXT NOT NULL,
	home_score   NUMERIC(5,2) NOT NULL CHECK (home_score BETWEEN 0 AND 100),
	away_score   NUMERIC(5,2) NOT NULL CHECK (away_score BETWEEN 0 AND 100),
	verdict      TEXT NOT NULL,
	odds_home    NUMERIC(7,3),
	odds_draw    NUMERIC(7,3),
	odds_away    NUMERIC(7,3),
	computed_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (run_id, fixture_id)
);

CREATE INDEX IF NOT EXISTS idx_predictions_fixture ON predictions (fixture_id);
`
