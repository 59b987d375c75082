package engine

import (
	"math"
	"testing"
	"time"

	"matchday/predictor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcomes(t *testing.T, s string) []models.Outcome {
	t.Helper()
	o, err := models.ParseOutcomes(s)
	require.NoError(t, err)
	return o
}

func TestScore_EmptyRecordsAreNeutral(t *testing.T) {
	ts := Score(models.FormRecord{TeamID: 1}, models.H2HRecord{TeamID: 1, OpponentID: 2})

	assert.Equal(t, NeutralScore, ts.Score)
	assert.False(t, ts.HasForm)
	assert.False(t, ts.HasH2H)
	assert.Zero(t, ts.FormMatches)
}

func TestScore_CountsOnlyValidOutcomes(t *testing.T) {
	form := models.FormRecord{TeamID: 1, Outcomes: []models.Outcome{models.Win, models.Outcome("X"), models.Draw}}
	h2h := models.H2HRecord{TeamID: 1, OpponentID: 2, Outcomes: []models.Outcome{models.Outcome("?")}}

	ts := Score(form, h2h)

	assert.Equal(t, 2, ts.FormMatches)
	assert.True(t, ts.HasForm)
	assert.Zero(t, ts.H2HMatches)
	assert.False(t, ts.HasH2H)

	clean := Score(models.FormRecord{TeamID: 1, Outcomes: outcomes(t, "WD")}, models.H2HRecord{})
	assert.Equal(t, clean.Score, ts.Score)
	assert.Equal(t, clean.FormMatches, ts.FormMatches)
}

func TestScore_FormBeatsPoorForm(t *testing.T) {
	teamA := Score(
		models.FormRecord{TeamID: 1, Outcomes: outcomes(t, "WWDLW")},
		models.H2HRecord{TeamID: 1, OpponentID: 2, Outcomes: outcomes(t, "WD")},
	)
	teamB := Score(
		models.FormRecord{TeamID: 2, Outcomes: outcomes(t, "LLDLW")},
		models.H2HRecord{TeamID: 2, OpponentID: 1},
	)

	assert.Greater(t, teamA.Score, teamB.Score)
	assert.InDelta(t, 76.01, teamA.Score, 0.01)
	assert.InDelta(t, 21.70, teamB.Score, 0.01)
}

func TestScore_RecentResultsWeighMore(t *testing.T) {
	recentWin := Score(models.FormRecord{Outcomes: outcomes(t, "WLLLL")}, models.H2HRecord{})
	oldWin := Score(models.FormRecord{Outcomes: outcomes(t, "LLLLW")}, models.H2HRecord{})

	assert.Greater(t, recentWin.Score, oldWin.Score)
}

func TestScore_SingleComponent(t *testing.T) {
	formOnly := Score(models.FormRecord{Outcomes: outcomes(t, "WWWWW")}, models.H2HRecord{})
	assert.Equal(t, MaxScore, formOnly.Score)
	assert.True(t, formOnly.HasForm)
	assert.False(t, formOnly.HasH2H)

	h2hOnly := Score(models.FormRecord{}, models.H2HRecord{Outcomes: outcomes(t, "LLL")})
	assert.Equal(t, MinScore, h2hOnly.Score)
	assert.True(t, h2hOnly.HasH2H)
}

func TestScore_AlwaysBoundedAndFinite(t *testing.T) {
	symbols := []models.Outcome{models.Win, models.Draw, models.Loss}

	// every sequence up to length 4 for both form and head-to-head
	var sequences [][]models.Outcome
	var build func(prefix []models.Outcome, depth int)
	build = func(prefix []models.Outcome, depth int) {
		sequences = append(sequences, append([]models.Outcome(nil), prefix...))
		if depth == 0 {
			return
		}
		for _, s := range symbols {
			build(append(prefix, s), depth-1)
		}
	}
	build(nil, 4)

	for _, form := range sequences {
		for _, h2h := range sequences {
			ts := Score(models.FormRecord{Outcomes: form}, models.H2HRecord{Outcomes: h2h})
			require.False(t, math.IsNaN(ts.Score) || math.IsInf(ts.Score, 0))
			require.GreaterOrEqual(t, ts.Score, MinScore)
			require.LessOrEqual(t, ts.Score, MaxScore)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	form := models.FormRecord{TeamID: 7, Outcomes: outcomes(t, "DWLWD")}
	h2h := models.H2HRecord{TeamID: 7, OpponentID: 8, Outcomes: outcomes(t, "LWD")}

	first := Score(form, h2h)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(form, h2h))
	}
}

func TestScore_IgnoresUnknownSymbols(t *testing.T) {
	ts := Score(models.FormRecord{Outcomes: []models.Outcome{"?", ""}}, models.H2HRecord{})
	assert.Equal(t, NeutralScore, ts.Score)
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		name       string
		home, away float64
		want       models.Verdict
	}{
		{"clear home", 80, 40, models.HomeWin},
		{"clear away", 30, 70, models.AwayWin},
		{"equal", 50, 50, models.DrawVerdict},
		{"within margin", 55, 46, models.DrawVerdict},
		{"exactly margin", 60, 50, models.DrawVerdict},
		{"just over margin", 60.01, 50, models.HomeWin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verdict(tt.home, tt.away))
		})
	}
}

func TestPredict(t *testing.T) {
	fixture := models.Fixture{
		ID:   1001,
		Home: models.Team{ID: 1, Name: "Arsenal"},
		Away: models.Team{ID: 2, Name: "Chelsea"},
	}
	homeForm := models.FormRecord{TeamID: 1, Outcomes: outcomes(t, "WWDLW")}
	awayForm := models.FormRecord{TeamID: 2, Outcomes: outcomes(t, "LLDLW")}
	h2h := models.H2HRecord{TeamID: 1, OpponentID: 2, Outcomes: outcomes(t, "WD")}
	odds := &models.OddsQuote{FixtureID: 1001, Home: 1.85, Draw: 3.6, Away: 4.33}
	now := time.Date(2024, 10, 19, 7, 0, 0, 0, time.UTC)

	result := Predict(fixture, homeForm, awayForm, h2h, odds, now)

	assert.Equal(t, models.HomeWin, result.Verdict)
	assert.Equal(t, 1, result.HomeScore.TeamID)
	assert.Equal(t, 2, result.AwayScore.TeamID)
	assert.Greater(t, result.Margin(), DrawMargin)
	assert.Same(t, odds, result.Odds)
	assert.Equal(t, now, result.ComputedAt)

	// the away side sees the mirrored meetings: L then D
	assert.InDelta(t, (0.0+0.8*0.5)/1.8, result.AwayScore.H2H, 1e-9)
}

func TestPredict_MirrorsAwayPerspectiveH2H(t *testing.T) {
	fixture := models.Fixture{Home: models.Team{ID: 1}, Away: models.Team{ID: 2}}
	form := models.FormRecord{}

	fromHome := Predict(fixture, form, form, models.H2HRecord{TeamID: 1, OpponentID: 2, Outcomes: outcomes(t, "WWD")}, nil, time.Time{})
	fromAway := Predict(fixture, form, form, models.H2HRecord{TeamID: 2, OpponentID: 1, Outcomes: outcomes(t, "LLD")}, nil, time.Time{})

	assert.Equal(t, fromHome.HomeScore, fromAway.HomeScore)
	assert.Equal(t, fromHome.AwayScore, fromAway.AwayScore)
	assert.Equal(t, "WWD", fromAway.H2H.String())
}

func TestPredict_NoHistoryIsDraw(t *testing.T) {
	fixture := models.Fixture{Home: models.Team{ID: 1}, Away: models.Team{ID: 2}}

	result := Predict(fixture, models.FormRecord{TeamID: 1}, models.FormRecord{TeamID: 2}, models.H2HRecord{TeamID: 1, OpponentID: 2}, nil, time.Time{})

	assert.Equal(t, NeutralScore, result.HomeScore.Score)
	assert.Equal(t, NeutralScore, result.AwayScore.Score)
	assert.Equal(t, models.DrawVerdict, result.Verdict)
	assert.Nil(t, result.Odds)
}
