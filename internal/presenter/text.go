// Package presenter renders prediction reports for terminals, logs and browsers.
package presenter

import (
	"fmt"
	"io"
	"strings"

	"matchday/predictor/internal/models"

	"github.com/rs/zerolog"
)

// NotAvailable is printed in place of missing odds
const NotAvailable = "N/A"

// TextPresenter writes reports as plain text
type TextPresenter struct{}

// NewTextPresenter creates a text presenter
func NewTextPresenter() *TextPresenter {
	return &TextPresenter{}
}

// Render writes a human-readable report to w
func (p *TextPresenter) Render(w io.Writer, report *models.Report) error {
	ew := &errWriter{w: w}

	ew.printf("Predictions for %s\n", report.Date)

	for _, league := range report.Leagues {
		ew.printf("\n=== %s ===\n", leagueTitle(league.League))

		if league.Error != "" {
			ew.printf("  could not load fixtures: %s\n", league.Error)
			continue
		}
		if len(league.Results) == 0 && len(league.Failures) == 0 {
			ew.printf("  No fixtures on %s\n", report.Date)
			continue
		}

		for _, result := range league.Results {
			p.renderResult(ew, result)
		}
		for _, failure := range league.Failures {
			ew.printf("\n%s vs %s\n  skipped (%s): %s\n", failure.Home, failure.Away, failure.Stage, failure.Error)
		}
	}

	ew.printf("\n%d predictions, %d failures\n", report.PredictionCount(), report.FailureCount())
	return ew.err
}

func (p *TextPresenter) renderResult(ew *errWriter, r models.PredictionResult) {
	f := r.Fixture
	kickoff := f.Kickoff.UTC().Format("15:04") + " UTC"
	if !f.IsScheduled() && f.Status != "" {
		kickoff += ", " + f.Status
	}
	ew.printf("\n%s vs %s (%s)\n", f.Home.Name, f.Away.Name, kickoff)
	ew.printf("  Form      %-10s %s\n", orDash(r.HomeForm.String()), orDash(r.AwayForm.String()))
	ew.printf("  H2H       %s\n", orDash(r.H2H.String()))
	ew.printf("  Score     %-10.2f %.2f\n", r.HomeScore.Score, r.AwayScore.Score)
	ew.printf("  Verdict   %s\n", r.Verdict.Label(f))
	ew.printf("  Odds      %s\n", FormatOdds(r.Odds))
}

// Log emits one structured event per prediction and per failure
func (p *TextPresenter) Log(logger zerolog.Logger, report *models.Report) {
	for _, league := range report.Leagues {
		if league.Error != "" {
			logger.Error().
				Str("run_id", report.RunID).
				Str("league", league.League.Name).
				Str("error", league.Error).
				Msg("League failed")
			continue
		}

		for _, r := range league.Results {
			event := logger.Info().
				Str("run_id", report.RunID).
				Str("league", league.League.Name).
				Int("fixture_id", r.Fixture.ID).
				Str("home", r.Fixture.Home.Name).
				Str("away", r.Fixture.Away.Name).
				Str("home_form", r.HomeForm.String()).
				Str("away_form", r.AwayForm.String()).
				Str("h2h", r.H2H.String()).
				Float64("home_score", r.HomeScore.Score).
				Float64("away_score", r.AwayScore.Score).
				Float64("margin", r.Margin()).
				Str("verdict", string(r.Verdict))
			if r.Odds != nil {
				home, draw, away := r.Odds.ImpliedProbabilities()
				event = event.
					Float64("odds_home", r.Odds.Home).
					Float64("odds_draw", r.Odds.Draw).
					Float64("odds_away", r.Odds.Away).
					Float64("implied_home", home).
					Float64("implied_draw", draw).
					Float64("implied_away", away).
					Float64("overround", r.Odds.Overround())
			}
			event.Msg("Prediction")
		}

		for _, failure := range league.Failures {
			logger.Warn().
				Str("run_id", report.RunID).
				Str("league", league.League.Name).
				Int("fixture_id", failure.FixtureID).
				Str("stage", failure.Stage).
				Str("error", failure.Error).
				Msg("Fixture skipped")
		}
	}
}

// FormatOdds renders a 1X2 quote or NotAvailable
func FormatOdds(q *models.OddsQuote) string {
	if q == nil {
		return NotAvailable
	}
	return fmt.Sprintf("1: %.2f  X: %.2f  2: %.2f", q.Home, q.Draw, q.Away)
}

// ImpliedOdds renders the margin-free probabilities of a quote, or an empty string
func ImpliedOdds(q *models.OddsQuote) string {
	if q == nil {
		return ""
	}
	home, draw, away := q.ImpliedProbabilities()
	return fmt.Sprintf("implied 1: %.0f%%  X: %.0f%%  2: %.0f%%, margin %.1f%%", home*100, draw*100, away*100, q.Overround()*100)
}

func leagueTitle(l models.League) string {
	if l.Country == "" {
		return l.Name
	}
	return fmt.Sprintf("%s (%s)", l.Name, l.Country)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// errWriter keeps the first write error so Render can report it once
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
