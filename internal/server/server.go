// Package server provides the HTTP server and routing for the web mode.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"matchday/predictor/internal/client"
	"matchday/predictor/internal/models"
	"matchday/predictor/internal/presenter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// Runner computes the report for a day
type Runner interface {
	Run(ctx context.Context, date time.Time) (*models.Report, error)
}

// HealthChecker is an optional store reported by /health
type HealthChecker interface {
	Health(ctx context.Context) error
	PoolStats() map[string]interface{}
}

// Config holds server configuration
type Config struct {
	Log            zerolog.Logger
	Runner         Runner
	Port           int
	DevMode        bool
	MetricsEnabled bool

	// Archive is checked by /health when set
	Archive HealthChecker

	// Upper bound for one request, including the prediction run
	RequestTimeout time.Duration
	Now            func() time.Time
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	runner Runner
	html   *presenter.HTMLPresenter
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}

	html, err := presenter.NewHTMLPresenter()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		runner: cfg.Runner,
		html:   html,
		cfg:    cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(s.cfg.RequestTimeout))

	if !s.cfg.DevMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/", s.handleIndex)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/predictions", s.handlePredictions)
	})

	if s.cfg.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler())
	}
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Archive == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	if err := s.cfg.Archive.Health(r.Context()); err != nil {
		s.log.Warn().Err(err).Msg("Archive health check failed")
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "degraded",
			"archive": err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"archive": s.cfg.Archive.PoolStats(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := presenter.Page{Date: s.cfg.Now().Format(dateLayout)}
	status := http.StatusOK

	date, err := s.parseDate(r)
	if err != nil {
		page.Date = r.URL.Query().Get("date")
		page.Error = err.Error()
		status = http.StatusBadRequest
	} else {
		page.Date = date.Format(dateLayout)
		page.Report, err = s.runner.Run(r.Context(), date)
		if err != nil {
			s.log.Error().Err(err).Str("date", page.Date).Msg("Prediction run failed")
			page.Error = userMessage(err)
			status = statusForError(err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.html.Render(w, page); err != nil {
		s.log.Error().Err(err).Msg("Failed to render page")
	}
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	date, err := s.parseDate(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.runner.Run(r.Context(), date)
	if err != nil {
		s.log.Error().Err(err).Str("date", date.Format(dateLayout)).Msg("Prediction run failed")
		s.writeError(w, statusForError(err), userMessage(err))
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

// parseDate reads ?date=YYYY-MM-DD, defaulting to today
func (s *Server) parseDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		now := s.cfg.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return date, nil
}

// statusForError maps a failed run to the response status
func statusForError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, client.ErrRateLimited):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return "The football data provider rejected the API key."
	case errors.Is(err, client.ErrRateLimited):
		return "The football data provider quota is exhausted, try again later."
	case errors.Is(err, context.DeadlineExceeded):
		return "The prediction run timed out."
	default:
		return "Predictions are unavailable: " + err.Error()
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
