package repository

import (
	"testing"
	"time"

	"matchday/predictor/internal/models"

	"github.com/stretchr/testify/assert"
)

func validResult() models.PredictionResult {
	return models.PredictionResult{
		Fixture: models.Fixture{
			ID:   1001,
			Home: models.Team{ID: 42, Name: "Arsenal"},
			Away: models.Team{ID: 49, Name: "Chelsea"},
		},
		HomeScore:  models.TeamScore{Score: 76.01},
		AwayScore:  models.TeamScore{Score: 21.7},
		Verdict:    models.HomeWin,
		ComputedAt: time.Date(2024, 10, 19, 7, 0, 0, 0, time.UTC),
	}
}

func TestValidatePrediction(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.PredictionResult)
		errMsg string
	}{
		{name: "valid", mutate: func(*models.PredictionResult) {}},
		{name: "missing fixture", mutate: func(p *models.PredictionResult) { p.Fixture.ID = 0 }, errMsg: "fixture_id"},
		{name: "missing team", mutate: func(p *models.PredictionResult) { p.Fixture.Away.ID = 0 }, errMsg: "team ids"},
		{name: "score above range", mutate: func(p *models.PredictionResult) { p.HomeScore.Score = 100.5 }, errMsg: "out of range"},
		{name: "negative score", mutate: func(p *models.PredictionResult) { p.AwayScore.Score = -1 }, errMsg: "out of range"},
		{name: "unknown verdict", mutate: func(p *models.PredictionResult) { p.Verdict = "maybe" }, errMsg: "unknown verdict"},
		{name: "missing timestamp", mutate: func(p *models.PredictionResult) { p.ComputedAt = time.Time{} }, errMsg: "computed_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validResult()
			tt.mutate(&p)

			err := validatePrediction(&p)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "matchday", Password: "secret", Database: "matchday", SSLMode: "disable"}
	assert.Equal(t, "postgres://matchday:secret@db:5432/matchday?sslmode=disable", cfg.DSN())
}
