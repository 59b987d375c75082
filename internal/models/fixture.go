package models

import (
	"fmt"
	"time"
)

// Fixture represents a scheduled or played match between two teams
type Fixture struct {
	ID         int       `json:"id"`
	Home       Team      `json:"home"`
	Away       Team      `json:"away"`
	Kickoff    time.Time `json:"kickoff"`
	LeagueID   int       `json:"league_id"`
	LeagueName string    `json:"league_name"`
	Season     int       `json:"season"`
	Status     string    `json:"status"`

	// Only set for played matches; nil winner with a finished status is a draw
	HomeWinner *bool `json:"-"`
	AwayWinner *bool `json:"-"`
}

// FixtureInput mirrors one element of the provider's fixtures response
type FixtureInput struct {
	Fixture struct {
		ID     int    `json:"id"`
		Date   string `json:"date"` // ISO 8601 with offset
		Status struct {
			Long  string `json:"long"`
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Season int    `json:"season"`
	} `json:"league"`
	Teams struct {
		Home TeamSideInput `json:"home"`
		Away TeamSideInput `json:"away"`
	} `json:"teams"`
}

// TeamSideInput is one side of a fixture as the provider returns it
type TeamSideInput struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Winner *bool  `json:"winner"`
}

// ToFixture converts FixtureInput (from API) to Fixture model
func (fi *FixtureInput) ToFixture() (Fixture, error) {
	if fi.Fixture.ID == 0 {
		return Fixture{}, fmt.Errorf("fixture without id")
	}
	if fi.Teams.Home.ID == 0 || fi.Teams.Away.ID == 0 {
		return Fixture{}, fmt.Errorf("fixture %d: missing team id", fi.Fixture.ID)
	}

	kickoff, err := time.Parse(time.RFC3339, fi.Fixture.Date)
	if err != nil {
		return Fixture{}, fmt.Errorf("fixture %d: invalid date %q: %w", fi.Fixture.ID, fi.Fixture.Date, err)
	}

	return Fixture{
		ID:         fi.Fixture.ID,
		Home:       Team{ID: fi.Teams.Home.ID, Name: fi.Teams.Home.Name},
		Away:       Team{ID: fi.Teams.Away.ID, Name: fi.Teams.Away.Name},
		Kickoff:    kickoff.UTC(),
		LeagueID:   fi.League.ID,
		LeagueName: fi.League.Name,
		Season:     fi.League.Season,
		Status:     fi.Fixture.Status.Short,
		HomeWinner: fi.Teams.Home.Winner,
		AwayWinner: fi.Teams.Away.Winner,
	}, nil
}

// finishedStatuses are the provider's short codes for a decided match
var finishedStatuses = map[string]bool{
	"FT":  true, // full time
	"AET": true, // after extra time
	"PEN": true, // after penalties
	"AWD": true, // awarded
	"WO":  true, // walkover
}

// IsFinished returns true if the match has a final result
func (f *Fixture) IsFinished() bool {
	return finishedStatuses[f.Status]
}

// IsScheduled returns true if the match has not started yet
func (f *Fixture) IsScheduled() bool {
	return f.Status == "NS" || f.Status == "TBD"
}

// OutcomeFor returns the result of a finished fixture for the given team.
// The second value is false when the fixture is unfinished or the team did not play.
func (f *Fixture) OutcomeFor(teamID int) (Outcome, bool) {
	if !f.IsFinished() {
		return "", false
	}

	var winner *bool
	switch teamID {
	case f.Home.ID:
		winner = f.HomeWinner
	case f.Away.ID:
		winner = f.AwayWinner
	default:
		return "", false
	}

	switch {
	case winner == nil:
		return Draw, true
	case *winner:
		return Win, true
	default:
		return Loss, true
	}
}

// Opponent returns the other side of the fixture
func (f *Fixture) Opponent(teamID int) Team {
	if f.Home.ID == teamID {
		return f.Away
	}
	return f.Home
}
