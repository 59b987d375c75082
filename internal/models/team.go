package models

import "time"

// SeasonStartMonth is the month European football seasons start in
const SeasonStartMonth = time.July

// SeasonForDate returns the season a match date belongs to, named by its starting year.
// A date in March 2027 belongs to season 2026.
func SeasonForDate(date time.Time) int {
	if date.Month() >= SeasonStartMonth {
		return date.Year()
	}
	return date.Year() - 1
}

// Team represents a football club as identified by the provider
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// League represents a competition tracked by the predictor
type League struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Type    string `json:"type,omitempty"`
	Season  int    `json:"season,omitempty"`
}

// LeagueInput is one entry of the provider's leagues endpoint
type LeagueInput struct {
	League struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"league"`
	Country struct {
		Name string `json:"name"`
	} `json:"country"`
	Seasons []struct {
		Year    int  `json:"year"`
		Current bool `json:"current"`
	} `json:"seasons"`
}

// ToLeague converts LeagueInput (from API) to League model
// Season is the provider's current season when one is flagged
func (li *LeagueInput) ToLeague() League {
	league := League{
		ID:      li.League.ID,
		Name:    li.League.Name,
		Country: li.Country.Name,
		Type:    li.League.Type,
	}
	for _, s := range li.Seasons {
		if s.Current {
			league.Season = s.Year
		}
	}
	return league
}
