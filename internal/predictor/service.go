// Package predictor runs the fetch → score pipeline for a match day.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchday/predictor/internal/client"
	"matchday/predictor/internal/engine"
	"matchday/predictor/internal/metrics"
	"matchday/predictor/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Failure stages reported for skipped fixtures
const (
	StageHomeForm = "home_form"
	StageAwayForm = "away_form"
	StageH2H      = "h2h"
	StageOdds     = "odds"
)

// Fetcher is the subset of the API client the pipeline needs
type Fetcher interface {
	FetchFixturesByDate(ctx context.Context, date time.Time, leagueID, season int) ([]models.Fixture, error)
	FetchLastFixtures(ctx context.Context, teamID, n int) (models.FormRecord, error)
	FetchHeadToHead(ctx context.Context, teamID, opponentID, n int) (models.H2HRecord, error)
	FetchOdds(ctx context.Context, fixtureID, bookmakerID int) (*models.OddsQuote, error)
}

// Archiver receives every completed report
type Archiver interface {
	SaveReport(ctx context.Context, report *models.Report) error
}

// Options configures a Service
type Options struct {
	Leagues []models.League
	// Season overrides the season derived from the run date when positive
	Season      int
	BookmakerID int
	FormMatches int
	H2HMatches  int

	// Trigger labels runs in metrics: "schedule", "manual" or "web"
	Trigger  string
	Archiver Archiver
	Now      func() time.Time
}

// Service computes predictions for every configured league on a given day
type Service struct {
	fetcher Fetcher
	opts    Options
}

// NewService creates a new prediction service
func NewService(fetcher Fetcher, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Trigger == "" {
		opts.Trigger = "manual"
	}
	return &Service{fetcher: fetcher, opts: opts}
}

// IsFatal reports whether err must abort the whole run rather than one fixture
func IsFatal(err error) bool {
	return errors.Is(err, client.ErrUnauthorized) ||
		errors.Is(err, client.ErrRateLimited) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Run fetches the fixtures of date and predicts each of them, one request at a time.
// Fixture-level fetch errors are recorded in the report; fatal errors abort the run
// and no report is returned.
func (s *Service) Run(ctx context.Context, date time.Time) (*models.Report, error) {
	start := s.opts.Now()
	report := &models.Report{
		RunID:     uuid.NewString(),
		Date:      date.Format("2006-01-02"),
		StartedAt: start,
	}

	logger := log.With().Str("run_id", report.RunID).Str("date", report.Date).Logger()
	logger.Info().Int("leagues", len(s.opts.Leagues)).Msg("Prediction run starting")

	for _, league := range s.opts.Leagues {
		lr, err := s.runLeague(ctx, date, league)
		if err != nil {
			metrics.RecordRun(s.opts.Trigger, "failed", time.Since(start).Seconds())
			metrics.RecordError("predictor", "fatal")
			logger.Error().Err(err).Str("league", league.Name).Msg("Prediction run aborted")
			return nil, err
		}
		report.Leagues = append(report.Leagues, lr)
	}

	report.FinishedAt = s.opts.Now()
	metrics.RecordRun(s.opts.Trigger, "success", time.Since(start).Seconds())

	logger.Info().
		Int("predictions", report.PredictionCount()).
		Int("failures", report.FailureCount()).
		Dur("duration", report.Duration()).
		Msg("Prediction run complete")

	if s.opts.Archiver != nil {
		if err := s.opts.Archiver.SaveReport(ctx, report); err != nil {
			metrics.RecordError("archive", "save")
			logger.Error().Err(err).Msg("Failed to archive report")
		}
	}

	return report, nil
}

func (s *Service) runLeague(ctx context.Context, date time.Time, league models.League) (models.LeagueReport, error) {
	lr := models.LeagueReport{League: league}

	if err := ctx.Err(); err != nil {
		return lr, err
	}

	fixtures, err := s.fetcher.FetchFixturesByDate(ctx, date, league.ID, s.season(league, date))
	if err != nil {
		if IsFatal(err) {
			return lr, fmt.Errorf("league %s: %w", league.Name, err)
		}
		log.Error().Err(err).Str("league", league.Name).Msg("Failed to fetch fixtures")
		metrics.RecordError("predictor", "fixtures")
		lr.Error = err.Error()
		return lr, nil
	}

	if len(fixtures) == 0 {
		log.Info().Str("league", league.Name).Str("date", date.Format("2006-01-02")).Msg("No fixtures on date")
		return lr, nil
	}

	for _, fixture := range fixtures {
		result, stage, err := s.predictFixture(ctx, fixture)
		if err != nil {
			if IsFatal(err) {
				return lr, fmt.Errorf("fixture %d: %w", fixture.ID, err)
			}
			log.Warn().
				Err(err).
				Int("fixture_id", fixture.ID).
				Str("stage", stage).
				Msg("Skipping fixture")
			metrics.RecordFixtureFailure(stage)
			lr.Failures = append(lr.Failures, models.FixtureFailure{
				FixtureID: fixture.ID,
				Home:      fixture.Home.Name,
				Away:      fixture.Away.Name,
				Stage:     stage,
				Error:     err.Error(),
			})
			continue
		}

		metrics.RecordPrediction(string(result.Verdict))
		lr.Results = append(lr.Results, result)
	}

	return lr, nil
}

// predictFixture gathers the scoring inputs for one fixture. On error it returns the failing stage.
func (s *Service) predictFixture(ctx context.Context, fixture models.Fixture) (models.PredictionResult, string, error) {
	homeForm, err := s.fetcher.FetchLastFixtures(ctx, fixture.Home.ID, s.opts.FormMatches)
	if err != nil {
		return models.PredictionResult{}, StageHomeForm, err
	}

	awayForm, err := s.fetcher.FetchLastFixtures(ctx, fixture.Away.ID, s.opts.FormMatches)
	if err != nil {
		return models.PredictionResult{}, StageAwayForm, err
	}

	h2h, err := s.fetcher.FetchHeadToHead(ctx, fixture.Home.ID, fixture.Away.ID, s.opts.H2HMatches)
	if err != nil {
		return models.PredictionResult{}, StageH2H, err
	}

	// Odds are display data only: without them the prediction still stands
	odds, err := s.fetcher.FetchOdds(ctx, fixture.ID, s.opts.BookmakerID)
	if err != nil {
		if IsFatal(err) {
			return models.PredictionResult{}, StageOdds, err
		}
		log.Warn().Err(err).Int("fixture_id", fixture.ID).Msg("Odds unavailable")
		metrics.RecordError("predictor", "odds")
		odds = nil
	}

	result := engine.Predict(fixture, homeForm, awayForm, h2h, odds, s.opts.Now())

	log.Debug().
		Int("fixture_id", fixture.ID).
		Str("home", fixture.Home.Name).
		Str("away", fixture.Away.Name).
		Float64("home_score", result.HomeScore.Score).
		Float64("away_score", result.AwayScore.Score).
		Str("verdict", string(result.Verdict)).
		Msg("Fixture predicted")

	return result, "", nil
}

// season picks the league's own season, then the configured one, then the one date falls in
func (s *Service) season(league models.League, date time.Time) int {
	if league.Season > 0 {
		return league.Season
	}
	if s.opts.Season > 0 {
		return s.opts.Season
	}
	return models.SeasonForDate(date)
}
