package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// placeholderKeys are values shipped in sample configs that must never reach the API
var placeholderKeys = map[string]bool{
	"VOTRE_CLE_API": true,
	"YOUR_API_KEY":  true,
	"change_me":     true,
}

// Config holds all application configuration
type Config struct {
	// API-Football
	APIKey     string        `envconfig:"APIFOOTBALL_KEY" required:"true"`
	APIBaseURL string        `envconfig:"APIFOOTBALL_BASE_URL" default:"https://api-football-v1.p.rapidapi.com/v3"`
	APIHost    string        `envconfig:"APIFOOTBALL_HOST" default:"api-football-v1.p.rapidapi.com"`
	APITimeout time.Duration `envconfig:"APIFOOTBALL_TIMEOUT" default:"30s"`

	// Prediction
	Season      int            `envconfig:"SEASON"`                   // 0 follows the run date
	BookmakerID int            `envconfig:"BOOKMAKER_ID" default:"8"` // client.Bet365
	Leagues     map[string]int `envconfig:"LEAGUES" default:"Premier League:39,Ligue 1:61,La Liga:140,Serie A:135,Bundesliga:78,UEFA Champions League:2,UEFA Europa League:3"`
	FormMatches int            `envconfig:"FORM_MATCHES" default:"5"`
	H2HMatches  int            `envconfig:"H2H_MATCHES" default:"10"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	PredictionCron  string `envconfig:"PREDICTION_CRON" default:"0 7 * * *"`
	RunOnStart      bool   `envconfig:"RUN_ON_START" default:"false"`

	// Web
	WebPort int `envconfig:"WEB_PORT" default:"8080"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`

	// Response cache (Redis), off by default so every run hits the API
	CacheEnabled  bool          `envconfig:"CACHE_ENABLED" default:"false"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`

	// Prediction archive (PostgreSQL), off by default
	ArchiveEnabled   bool   `envconfig:"ARCHIVE_ENABLED" default:"false"`
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"matchday"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"matchday"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`
}

// League is one configured competition
type League struct {
	Name string
	ID   int
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return fmt.Errorf("APIFOOTBALL_KEY is required")
	}
	if placeholderKeys[key] {
		return fmt.Errorf("APIFOOTBALL_KEY is still the placeholder %q", key)
	}

	if len(c.Leagues) == 0 {
		return fmt.Errorf("LEAGUES must list at least one league")
	}
	for name, id := range c.Leagues {
		if id <= 0 {
			return fmt.Errorf("LEAGUES: invalid id %d for %q", id, name)
		}
	}

	if c.FormMatches <= 0 {
		return fmt.Errorf("FORM_MATCHES must be positive")
	}
	if c.H2HMatches <= 0 {
		return fmt.Errorf("H2H_MATCHES must be positive")
	}
	if c.Season != 0 && c.Season < 2000 {
		return fmt.Errorf("SEASON %d is out of range", c.Season)
	}

	if c.EnableScheduler {
		if _, err := cron.ParseStandard(c.PredictionCron); err != nil {
			return fmt.Errorf("PREDICTION_CRON %q: %w", c.PredictionCron, err)
		}
	}

	if c.ArchiveEnabled && c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required when ARCHIVE_ENABLED is set")
	}

	return nil
}

// LeagueList returns the configured leagues sorted by name
func (c *Config) LeagueList() []League {
	leagues := make([]League, 0, len(c.Leagues))
	for name, id := range c.Leagues {
		leagues = append(leagues, League{Name: strings.TrimSpace(name), ID: id})
	}
	sort.Slice(leagues, func(i, j int) bool {
		return leagues[i].Name < leagues[j].Name
	})
	return leagues
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
