package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonForDate(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2026-10-19", 2026},
		{"2026-07-01", 2026},
		{"2026-06-30", 2025},
		{"2027-03-01", 2026},
		{"2024-12-26", 2024},
		{"2025-01-01", 2024},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			date, err := time.Parse("2006-01-02", tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, SeasonForDate(date))
		})
	}
}

func TestLeagueInputToLeague(t *testing.T) {
	raw := `{
		"league": {"id": 39, "name": "Premier League", "type": "League"},
		"country": {"name": "England"},
		"seasons": [{"year": 2025, "current": false}, {"year": 2026, "current": true}]
	}`

	var input LeagueInput
	require.NoError(t, json.Unmarshal([]byte(raw), &input))

	league := input.ToLeague()
	assert.Equal(t, League{ID: 39, Name: "Premier League", Country: "England", Type: "League", Season: 2026}, league)
}
