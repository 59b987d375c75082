package repository

import (
	"context"
	"errors"
	"fmt"

	"matchday/predictor/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// PredictionRepository archives prediction runs. Rows are written once and never read back into scoring.
type PredictionRepository struct {
	db *Database
}

// RunSummary is the archived header of a run
type RunSummary struct {
	RunID       string
	MatchDate   string
	Predictions int
	Failures    int
}

// SaveReport stores a run and all of its predictions atomically
func (r *PredictionRepository) SaveReport(ctx context.Context, report *models.Report) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	for _, league := range report.Leagues {
		for i := range league.Results {
			if err := validatePrediction(&league.Results[i]); err != nil {
				return fmt.Errorf("prediction validation failed for fixture %d: %w", league.Results[i].Fixture.ID, err)
			}
		}
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO prediction_runs (run_id, match_date, started_at, finished_at, predictions, failures)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		report.RunID, report.Date, report.StartedAt, report.FinishedAt,
		report.PredictionCount(), report.FailureCount(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, league := range report.Leagues {
		for _, p := range league.Results {
			var oddsHome, oddsDraw, oddsAway *float64
			if p.Odds != nil {
				oddsHome, oddsDraw, oddsAway = &p.Odds.Home, &p.Odds.Draw, &p.Odds.Away
			}

			batch.Queue(`
				INSERT INTO predictions (
					run_id, fixture_id, league_id, league_name, kickoff,
					home_team_id, home_team, away_team_id, away_team,
					home_form, away_form, h2h,
					home_score, away_score, verdict,
					odds_home, odds_draw, odds_away,
					computed_at
				) VALUES (
					$1, $2, $3, $4, $5,
					$6, $7, $8, $9,
					$10, $11, $12,
					$13, $14, $15,
					$16, $17, $18,
					$19
				)
			`,
				report.RunID, p.Fixture.ID, league.League.ID, league.League.Name, p.Fixture.Kickoff,
				p.Fixture.Home.ID, p.Fixture.Home.Name, p.Fixture.Away.ID, p.Fixture.Away.Name,
				p.HomeForm.String(), p.AwayForm.String(), p.H2H.String(),
				p.HomeScore.Score, p.AwayScore.Score, string(p.Verdict),
				oddsHome, oddsDraw, oddsAway,
				p.ComputedAt,
			)
		}
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert predictions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}

	log.Info().
		Str("run_id", report.RunID).
		Int("predictions", report.PredictionCount()).
		Msg("Report archived")
	return nil
}

// GetRunSummary returns the archived header of a run, or nil when unknown
func (r *PredictionRepository) GetRunSummary(ctx context.Context, runID string) (*RunSummary, error) {
	s := &RunSummary{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT run_id::text, to_char(match_date, 'YYYY-MM-DD'), predictions, failures
		FROM prediction_runs
		WHERE run_id = $1
	`, runID).Scan(&s.RunID, &s.MatchDate, &s.Predictions, &s.Failures)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return s, nil
}

// DeleteRun removes a run and its predictions
func (r *PredictionRepository) DeleteRun(ctx context.Context, runID string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM prediction_runs WHERE run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	log.Warn().Int64("rows_affected", result.RowsAffected()).Str("run_id", runID).Msg("Run deleted")
	return nil
}

// validatePrediction ensures a result is valid before insertion
func validatePrediction(p *models.PredictionResult) error {
	if p.Fixture.ID <= 0 {
		return fmt.Errorf("fixture_id must be positive")
	}
	if p.Fixture.Home.ID <= 0 || p.Fixture.Away.ID <= 0 {
		return fmt.Errorf("team ids must be positive")
	}
	for _, score := range []float64{p.HomeScore.Score, p.AwayScore.Score} {
		if score < 0 || score > 100 {
			return fmt.Errorf("score %.2f out of range [0,100]", score)
		}
	}
	switch p.Verdict {
	case models.HomeWin, models.DrawVerdict, models.AwayWin:
	default:
		return fmt.Errorf("unknown verdict %q", p.Verdict)
	}
	if p.ComputedAt.IsZero() {
		return fmt.Errorf("computed_at is required")
	}
	return nil
}
