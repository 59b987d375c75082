package models

import (
	"fmt"
	"time"
)

// Verdict is the predicted match outcome
type Verdict string

const (
	HomeWin     Verdict = "home_win"
	DrawVerdict Verdict = "draw"
	AwayWin     Verdict = "away_win"
)

// Label renders the verdict with the relevant team name
func (v Verdict) Label(f Fixture) string {
	switch v {
	case HomeWin:
		return fmt.Sprintf("%s win", f.Home.Name)
	case AwayWin:
		return fmt.Sprintf("%s win", f.Away.Name)
	default:
		return "Draw"
	}
}

// TeamScore is the scoring breakdown for one side of a fixture
type TeamScore struct {
	TeamID int `json:"team_id"`

	// Components in [0,1], only meaningful when the matching Has flag is set
	Form    float64 `json:"form"`
	HasForm bool    `json:"has_form"`
	H2H     float64 `json:"h2h"`
	HasH2H  bool    `json:"has_h2h"`

	// Final score in [0,100]
	Score float64 `json:"score"`

	FormMatches int `json:"form_matches"`
	H2HMatches  int `json:"h2h_matches"`
}

// PredictionResult is the computed prediction for one fixture in one run
type PredictionResult struct {
	Fixture   Fixture    `json:"fixture"`
	HomeForm  FormRecord `json:"home_form"`
	AwayForm  FormRecord `json:"away_form"`
	H2H       H2HRecord  `json:"h2h"`
	HomeScore TeamScore  `json:"home_score"`
	AwayScore TeamScore  `json:"away_score"`
	Verdict   Verdict    `json:"verdict"`
	Odds      *OddsQuote `json:"odds,omitempty"`

	ComputedAt time.Time `json:"computed_at"`
}

// Margin returns home score minus away score
func (p *PredictionResult) Margin() float64 {
	return p.HomeScore.Score - p.AwayScore.Score
}

// FixtureFailure records a fixture that produced no prediction
type FixtureFailure struct {
	FixtureID int    `json:"fixture_id"`
	Home      string `json:"home"`
	Away      string `json:"away"`
	Stage     string `json:"stage"`
	Error     string `json:"error"`
}

// LeagueReport groups the results of one competition
type LeagueReport struct {
	League   League             `json:"league"`
	Results  []PredictionResult `json:"results"`
	Failures []FixtureFailure   `json:"failures,omitempty"`

	// Set when the league's fixture list could not be fetched
	Error string `json:"error,omitempty"`
}

// Report is the output of one prediction run
type Report struct {
	RunID      string         `json:"run_id"`
	Date       string         `json:"date"` // YYYY-MM-DD
	Leagues    []LeagueReport `json:"leagues"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// PredictionCount returns the number of predicted fixtures across leagues
func (r *Report) PredictionCount() int {
	n := 0
	for _, l := range r.Leagues {
		n += len(l.Results)
	}
	return n
}

// FailureCount returns the number of fixtures and leagues that failed
func (r *Report) FailureCount() int {
	n := 0
	for _, l := range r.Leagues {
		n += len(l.Failures)
		if l.Error != "" {
			n++
		}
	}
	return n
}

// Duration returns how long the run took
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
