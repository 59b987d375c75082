// Package engine computes form and head-to-head scores for fixtures.
//
// Every function is pure: the same outcome sequences always produce the same
// score, and no state is kept between calls.
package engine

import (
	"math"
	"time"

	"matchday/predictor/internal/models"

	"gonum.org/v1/gonum/floats"
)

// Per-match outcome values
const (
	WinValue  = 1.0
	DrawValue = 0.5
	LossValue = 0.0
)

// Weighting and bounds
const (
	// RecencyDecay is the weight ratio between a match and the one before it.
	// Match i (0 = most recent) carries weight RecencyDecay^i.
	RecencyDecay = 0.8

	FormWeight = 0.7
	H2HWeight  = 0.3

	MinScore     = 0.0
	MaxScore     = 100.0
	NeutralScore = 50.0

	// DrawMargin is the score gap at or under which a draw is predicted
	DrawMargin = 10.0
)

func outcomeValue(o models.Outcome) float64 {
	switch o {
	case models.Win:
		return WinValue
	case models.Draw:
		return DrawValue
	default:
		return LossValue
	}
}

// weightedMean returns the recency-weighted mean outcome value in [0,1]
// and the number of outcomes counted. Unknown symbols are ignored.
func weightedMean(outcomes []models.Outcome) (float64, int) {
	values := make([]float64, 0, len(outcomes))
	weights := make([]float64, 0, len(outcomes))

	w := 1.0
	for _, o := range outcomes {
		if !o.Valid() {
			continue
		}
		values = append(values, outcomeValue(o))
		weights = append(weights, w)
		w *= RecencyDecay
	}

	if len(values) == 0 {
		return 0, 0
	}
	return floats.Dot(values, weights) / floats.Sum(weights), len(values)
}

// FormScore scores a team's recent results, most recent first
func FormScore(outcomes []models.Outcome) (float64, bool) {
	score, n := weightedMean(outcomes)
	return score, n > 0
}

// H2HScore scores past meetings with the opponent, most recent first
func H2HScore(outcomes []models.Outcome) (float64, bool) {
	score, n := weightedMean(outcomes)
	return score, n > 0
}

// Score combines a team's form and head-to-head into a score in [MinScore, MaxScore].
// With only one component available it is used alone; with none the score is NeutralScore.
func Score(form models.FormRecord, h2h models.H2HRecord) models.TeamScore {
	ts := models.TeamScore{TeamID: form.TeamID}

	ts.Form, ts.FormMatches = weightedMean(form.Outcomes)
	ts.HasForm = ts.FormMatches > 0
	ts.H2H, ts.H2HMatches = weightedMean(h2h.Outcomes)
	ts.HasH2H = ts.H2HMatches > 0

	var combined float64
	switch {
	case ts.HasForm && ts.HasH2H:
		combined = FormWeight*ts.Form + H2HWeight*ts.H2H
	case ts.HasForm:
		combined = ts.Form
	case ts.HasH2H:
		combined = ts.H2H
	default:
		ts.Score = NeutralScore
		return ts
	}

	ts.Score = clamp(round2(combined * MaxScore))
	return ts
}

// Verdict compares two final scores
func Verdict(home, away float64) models.Verdict {
	switch {
	case home-away > DrawMargin:
		return models.HomeWin
	case away-home > DrawMargin:
		return models.AwayWin
	default:
		return models.DrawVerdict
	}
}

// Predict scores both sides of a fixture. h2h may be given from either team's side;
// the home team is scored with it as seen from home, the away team with its mirror.
func Predict(fixture models.Fixture, homeForm, awayForm models.FormRecord, h2h models.H2HRecord, odds *models.OddsQuote, now time.Time) models.PredictionResult {
	if h2h.TeamID != fixture.Home.ID && h2h.OpponentID == fixture.Home.ID {
		h2h = h2h.Mirror()
	}

	home := Score(homeForm, h2h)
	home.TeamID = fixture.Home.ID
	away := Score(awayForm, h2h.Mirror())
	away.TeamID = fixture.Away.ID

	return models.PredictionResult{
		Fixture:    fixture,
		HomeForm:   homeForm,
		AwayForm:   awayForm,
		H2H:        h2h,
		HomeScore:  home,
		AwayScore:  away,
		Verdict:    Verdict(home.Score, away.Score),
		Odds:       odds,
		ComputedAt: now,
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return NeutralScore
	}
	return math.Max(MinScore, math.Min(MaxScore, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
