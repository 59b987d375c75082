// Package app wires configuration, the API client and the optional stores into a prediction service.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"matchday/predictor/internal/cache"
	"matchday/predictor/internal/client"
	"matchday/predictor/internal/config"
	"matchday/predictor/internal/metrics"
	"matchday/predictor/internal/models"
	"matchday/predictor/internal/predictor"
	"matchday/predictor/internal/repository"
	"matchday/predictor/internal/server"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// App holds the long-lived dependencies shared by every run
type App struct {
	Config *config.Config
	Client *client.Client
	Cache  *cache.RedisCache
	DB     *repository.Database
}

// SetupLogger configures the global zerolog logger from APP_ENV and LOG_LEVEL
func SetupLogger(out io.Writer) {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	log.Debug().
		Str("level", zerolog.GlobalLevel().String()).
		Msg("Logger initialized")
}

func parseLevel(lvl string) zerolog.Level {
	if lvl == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(lvl)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// New connects the optional cache and archive and builds the API client.
// Store connection failures are logged and the app continues without them.
func New(ctx context.Context, cfg *config.Config) *App {
	a := &App{Config: cfg}

	opts := client.Options{
		BaseURL: cfg.APIBaseURL,
		APIKey:  cfg.APIKey,
		APIHost: cfg.APIHost,
		Timeout: cfg.APITimeout,
	}

	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			a.Cache = redisCache
			opts.Cache = redisCache
			opts.CacheTTL = cfg.CacheTTL
			log.Info().Dur("ttl", cfg.CacheTTL).Msg("Redis response cache enabled")
		}
	}

	a.Client = client.NewClient(opts)
	log.Info().Str("base_url", cfg.APIBaseURL).Msg("API-Football client initialized")

	if cfg.ArchiveEnabled {
		db, err := repository.NewDatabase(ctx, repository.Config{
			Host:     cfg.DatabaseHost,
			Port:     strconv.Itoa(cfg.DatabasePort),
			User:     cfg.DatabaseUser,
			Password: cfg.DatabasePassword,
			Database: cfg.DatabaseName,
			SSLMode:  cfg.DatabaseSSLMode,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to database - continuing without archive")
		} else {
			a.DB = db
		}
	}

	return a
}

// Service builds a prediction service labelled with trigger for metrics
func (a *App) Service(trigger string) *predictor.Service {
	opts := predictor.Options{
		Leagues:     Leagues(a.Config),
		Season:      a.Config.Season,
		BookmakerID: a.Config.BookmakerID,
		FormMatches: a.Config.FormMatches,
		H2HMatches:  a.Config.H2HMatches,
		Trigger:     trigger,
	}
	if a.DB != nil {
		opts.Archiver = a.DB.Predictions
	}
	return predictor.NewService(a.Client, opts)
}

// Close releases the optional stores
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis cache")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Leagues converts the configured leagues, sorted by name
func Leagues(cfg *config.Config) []models.League {
	configured := cfg.LeagueList()
	leagues := make([]models.League, 0, len(configured))
	for _, l := range configured {
		leagues = append(leagues, models.League{ID: l.ID, Name: l.Name})
	}
	return leagues
}

// ServeMetrics runs the Prometheus endpoint and the uptime gauge until ctx is done
func ServeMetrics(ctx context.Context, port int) {
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", port).Msg("Starting metrics server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}

var (
	_ predictor.Fetcher    = (*client.Client)(nil)
	_ server.HealthChecker = (*repository.Database)(nil)
	_ predictor.Archiver   = (*repository.PredictionRepository)(nil)
)
