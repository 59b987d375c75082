package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"matchday/predictor/internal/app"
	"matchday/predictor/internal/config"
	"matchday/predictor/internal/models"
	"matchday/predictor/internal/presenter"
	"matchday/predictor/internal/scheduler"

	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit
func run() int {
	app.SetupLogger(os.Stderr)

	log.Info().Msg("Starting match prediction worker")

	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Int("leagues", len(cfg.Leagues)).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	a := app.New(ctx, cfg)
	defer a.Close()

	if cfg.EnableMetrics {
		go app.ServeMetrics(ctx, cfg.MetricsPort)
	}

	text := presenter.NewTextPresenter()
	publish := func(report *models.Report) {
		text.Log(log.Logger, report)
		if err := text.Render(os.Stdout, report); err != nil {
			log.Error().Err(err).Msg("Failed to print report")
		}
	}

	sched := scheduler.NewScheduler(cfg.PredictionCron, a.Service("schedule"), publish)

	if cfg.EnableScheduler {
		if err := sched.Start(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to start scheduler")
			return 1
		}
	}

	if cfg.RunOnStart {
		log.Info().Msg("Running predictions on start...")
		if err := sched.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Initial prediction run failed, continuing anyway...")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
	return 0
}
