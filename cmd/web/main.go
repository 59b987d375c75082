// Command web serves the prediction page and JSON API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchday/predictor/internal/app"
	"matchday/predictor/internal/config"
	"matchday/predictor/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit
func run() int {
	app.SetupLogger(os.Stderr)

	log.Info().Msg("Starting match prediction web server")

	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(ctx, cfg)
	defer a.Close()

	srvCfg := server.Config{
		Log:            log.Logger,
		Runner:         a.Service("web"),
		Port:           cfg.WebPort,
		DevMode:        cfg.IsDevelopment(),
		MetricsEnabled: cfg.EnableMetrics,
	}
	if a.DB != nil {
		srvCfg.Archive = a.DB
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create server")
		return 1
	}

	failed := make(chan struct{})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			close(failed)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Web server shutdown complete")

	select {
	case <-failed:
		return 1
	default:
		return 0
	}
}
