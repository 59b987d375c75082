package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"matchday/predictor/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ErrRunInProgress is returned when a run is triggered while another is still going
var ErrRunInProgress = errors.New("prediction run already in progress")

// Runner produces the prediction report for a day
type Runner interface {
	Run(ctx context.Context, date time.Time) (*models.Report, error)
}

// ReportHandler receives every successful report
type ReportHandler func(report *models.Report)

// Scheduler triggers a prediction run for the current day on a cron schedule
type Scheduler struct {
	schedule string
	runner   Runner
	onReport ReportHandler
	cron     *cron.Cron
	now      func() time.Time

	mu sync.Mutex
}

// NewScheduler creates a new scheduler instance
func NewScheduler(schedule string, runner Runner, onReport ReportHandler) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		runner:   runner,
		onReport: onReport,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start registers the daily job and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.schedule, func() {
		log.Info().Msg("Running scheduled predictions...")
		if err := s.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled prediction run failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule prediction run: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.schedule).
		Msg("Daily predictions scheduled")

	return nil
}

// Stop stops the cron loop and waits for a running job to return
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	log.Info().Msg("Scheduler stopped")
}

// RunOnce runs the predictions for today. Overlapping runs are rejected.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.mu.TryLock() {
		return ErrRunInProgress
	}
	defer s.mu.Unlock()

	start := time.Now()
	report, err := s.runner.Run(ctx, s.now())
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", report.RunID).
		Int("predictions", report.PredictionCount()).
		Dur("duration", time.Since(start)).
		Msg("Prediction run complete")

	if s.onReport != nil {
		s.onReport(report)
	}
	return nil
}
