package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFixture = `{
	"fixture": {
		"id": 1035037,
		"referee": "M. Oliver",
		"timezone": "UTC",
		"date": "2024-08-16T21:00:00+02:00",
		"status": {"long": "Match Finished", "short": "FT", "elapsed": 90}
	},
	"league": {"id": 39, "name": "Premier League", "country": "England", "season": 2024},
	"teams": {
		"home": {"id": 33, "name": "Manchester United", "winner": true},
		"away": {"id": 36, "name": "Fulham", "winner": false}
	},
	"goals": {"home": 1, "away": 0}
}`

func TestFixtureInput_ToFixture(t *testing.T) {
	var input FixtureInput
	require.NoError(t, json.Unmarshal([]byte(sampleFixture), &input))

	f, err := input.ToFixture()
	require.NoError(t, err)

	assert.Equal(t, 1035037, f.ID)
	assert.Equal(t, Team{ID: 33, Name: "Manchester United"}, f.Home)
	assert.Equal(t, Team{ID: 36, Name: "Fulham"}, f.Away)
	assert.Equal(t, time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC), f.Kickoff)
	assert.Equal(t, "Premier League", f.LeagueName)
	assert.Equal(t, 2024, f.Season)
	assert.True(t, f.IsFinished())

	outcome, ok := f.OutcomeFor(33)
	require.True(t, ok)
	assert.Equal(t, Win, outcome)

	outcome, ok = f.OutcomeFor(36)
	require.True(t, ok)
	assert.Equal(t, Loss, outcome)

	_, ok = f.OutcomeFor(99)
	assert.False(t, ok, "team did not play")

	assert.Equal(t, 36, f.Opponent(33).ID)
	assert.Equal(t, 33, f.Opponent(36).ID)
}

func TestFixtureInput_ToFixtureErrors(t *testing.T) {
	var input FixtureInput
	require.NoError(t, json.Unmarshal([]byte(sampleFixture), &input))

	noDate := input
	noDate.Fixture.Date = ""
	_, err := noDate.ToFixture()
	assert.Error(t, err)

	noTeam := input
	noTeam.Teams.Away.ID = 0
	_, err = noTeam.ToFixture()
	assert.Error(t, err)

	noID := input
	noID.Fixture.ID = 0
	_, err = noID.ToFixture()
	assert.Error(t, err)
}

func TestFixture_OutcomeFor(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name       string
		status     string
		homeWinner *bool
		awayWinner *bool
		want       Outcome
		wantOK     bool
	}{
		{"home win", "FT", &yes, &no, Win, true},
		{"away win", "FT", &no, &yes, Loss, true},
		{"draw", "FT", nil, nil, Draw, true},
		{"penalties", "PEN", &no, &yes, Loss, true},
		{"not started", "NS", nil, nil, "", false},
		{"in play", "2H", &yes, &no, "", false},
		{"postponed", "PST", nil, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Fixture{
				Home:       Team{ID: 1},
				Away:       Team{ID: 2},
				Status:     tt.status,
				HomeWinner: tt.homeWinner,
				AwayWinner: tt.awayWinner,
			}
			got, ok := f.OutcomeFor(1)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
