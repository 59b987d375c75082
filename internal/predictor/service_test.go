package predictor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"matchday/predictor/internal/client"
	"matchday/predictor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	fixtures    map[int][]models.Fixture
	fixturesErr map[int]error
	form        map[int]string
	formErr     map[int]error
	h2h         map[string]string
	h2hErr      error
	odds        map[int]*models.OddsQuote
	oddsErr     error

	calls []string
}

func (f *fakeFetcher) FetchFixturesByDate(_ context.Context, date time.Time, leagueID, season int) ([]models.Fixture, error) {
	f.calls = append(f.calls, fmt.Sprintf("fixtures %d %s %d", leagueID, date.Format("2006-01-02"), season))
	if err := f.fixturesErr[leagueID]; err != nil {
		return nil, err
	}
	return f.fixtures[leagueID], nil
}

func (f *fakeFetcher) FetchLastFixtures(_ context.Context, teamID, n int) (models.FormRecord, error) {
	f.calls = append(f.calls, fmt.Sprintf("form %d %d", teamID, n))
	if err := f.formErr[teamID]; err != nil {
		return models.FormRecord{}, err
	}
	outcomes, err := models.ParseOutcomes(f.form[teamID])
	if err != nil {
		return models.FormRecord{}, err
	}
	return models.FormRecord{TeamID: teamID, Outcomes: outcomes}, nil
}

func (f *fakeFetcher) FetchHeadToHead(_ context.Context, teamID, opponentID, n int) (models.H2HRecord, error) {
	f.calls = append(f.calls, fmt.Sprintf("h2h %d-%d %d", teamID, opponentID, n))
	if f.h2hErr != nil {
		return models.H2HRecord{}, f.h2hErr
	}
	outcomes, err := models.ParseOutcomes(f.h2h[fmt.Sprintf("%d-%d", teamID, opponentID)])
	if err != nil {
		return models.H2HRecord{}, err
	}
	return models.H2HRecord{TeamID: teamID, OpponentID: opponentID, Outcomes: outcomes}, nil
}

func (f *fakeFetcher) FetchOdds(_ context.Context, fixtureID, bookmakerID int) (*models.OddsQuote, error) {
	f.calls = append(f.calls, fmt.Sprintf("odds %d %d", fixtureID, bookmakerID))
	if f.oddsErr != nil {
		return nil, f.oddsErr
	}
	return f.odds[fixtureID], nil
}

type recordingArchiver struct {
	reports []*models.Report
	err     error
}

func (a *recordingArchiver) SaveReport(_ context.Context, report *models.Report) error {
	a.reports = append(a.reports, report)
	return a.err
}

var matchDay = time.Date(2024, 10, 19, 0, 0, 0, 0, time.UTC)

func fixture(id, homeID int, home string, awayID int, away string) models.Fixture {
	return models.Fixture{
		ID:      id,
		Home:    models.Team{ID: homeID, Name: home},
		Away:    models.Team{ID: awayID, Name: away},
		Kickoff: matchDay.Add(15 * time.Hour),
		Status:  "NS",
	}
}

func newTestService(f Fetcher, archiver Archiver) *Service {
	return NewService(f, Options{
		Leagues: []models.League{
			{ID: 39, Name: "Premier League"},
			{ID: 61, Name: "Ligue 1"},
		},
		Season:      2024,
		BookmakerID: 8,
		FormMatches: 5,
		H2HMatches:  10,
		Archiver:    archiver,
		Now:         func() time.Time { return matchDay.Add(7 * time.Hour) },
	})
}

func TestRun(t *testing.T) {
	f := &fakeFetcher{
		fixtures: map[int][]models.Fixture{
			39: {fixture(1001, 42, "Arsenal", 49, "Chelsea")},
		},
		form: map[int]string{42: "WWDLW", 49: "LLDLW"},
		h2h:  map[string]string{"42-49": "WD"},
		odds: map[int]*models.OddsQuote{1001: {FixtureID: 1001, Home: 1.85, Draw: 3.6, Away: 4.33}},
	}
	archiver := &recordingArchiver{}

	report, err := newTestService(f, archiver).Run(context.Background(), matchDay)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "2024-10-19", report.Date)
	require.Len(t, report.Leagues, 2)
	assert.Equal(t, 1, report.PredictionCount())
	assert.Zero(t, report.FailureCount())

	result := report.Leagues[0].Results[0]
	assert.Equal(t, models.HomeWin, result.Verdict)
	assert.Greater(t, result.HomeScore.Score, result.AwayScore.Score)
	require.NotNil(t, result.Odds)
	assert.Equal(t, 1.85, result.Odds.Home)

	assert.Empty(t, report.Leagues[1].Results, "no Ligue 1 fixtures")

	assert.Equal(t, []string{
		"fixtures 39 2024-10-19 2024",
		"form 42 5",
		"form 49 5",
		"h2h 42-49 10",
		"odds 1001 8",
		"fixtures 61 2024-10-19 2024",
	}, f.calls, "requests are issued one at a time in order")

	require.Len(t, archiver.reports, 1)
	assert.Same(t, report, archiver.reports[0])
}

func TestRun_UnauthorizedAborts(t *testing.T) {
	f := &fakeFetcher{
		fixturesErr: map[int]error{
			39: fmt.Errorf("failed to fetch fixtures: %w (status 401)", client.ErrUnauthorized),
		},
	}
	archiver := &recordingArchiver{}

	report, err := newTestService(f, archiver).Run(context.Background(), matchDay)
	require.Error(t, err)
	assert.Nil(t, report, "no prediction results on fetch failure")
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Len(t, f.calls, 1, "run stops at the first fatal error")
	assert.Empty(t, archiver.reports)
}

func TestRun_UnauthorizedDuringFixtureAborts(t *testing.T) {
	f := &fakeFetcher{
		fixtures: map[int][]models.Fixture{39: {fixture(1001, 42, "Arsenal", 49, "Chelsea")}},
		formErr:  map[int]error{42: client.ErrUnauthorized},
	}

	report, err := newTestService(f, nil).Run(context.Background(), matchDay)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestRun_FixtureFailureIsSkipped(t *testing.T) {
	f := &fakeFetcher{
		fixtures: map[int][]models.Fixture{
			39: {
				fixture(1001, 42, "Arsenal", 49, "Chelsea"),
				fixture(1002, 33, "Manchester United", 40, "Liverpool"),
			},
		},
		form:    map[int]string{42: "WWW", 49: "LLL", 33: "DDD", 40: "WDW"},
		formErr: map[int]error{49: fmt.Errorf("decode: %w", client.ErrMalformedResponse)},
		h2h:     map[string]string{},
	}

	report, err := newTestService(f, nil).Run(context.Background(), matchDay)
	require.NoError(t, err)

	league := report.Leagues[0]
	require.Len(t, league.Results, 1)
	assert.Equal(t, 1002, league.Results[0].Fixture.ID)

	require.Len(t, league.Failures, 1)
	assert.Equal(t, 1001, league.Failures[0].FixtureID)
	assert.Equal(t, StageAwayForm, league.Failures[0].Stage)
	assert.Equal(t, "Chelsea", league.Failures[0].Away)
}

func TestRun_LeagueFailureContinues(t *testing.T) {
	f := &fakeFetcher{
		fixtures: map[int][]models.Fixture{
			61: {fixture(2001, 85, "Paris Saint Germain", 81, "Marseille")},
		},
		fixturesErr: map[int]error{39: fmt.Errorf("%w 500", client.ErrUnexpectedStatus)},
		form:        map[int]string{85: "WWWWD", 81: "WLDWL"},
		h2h:         map[string]string{"85-81": "WWLWD"},
	}

	report, err := newTestService(f, nil).Run(context.Background(), matchDay)
	require.NoError(t, err)

	assert.NotEmpty(t, report.Leagues[0].Error)
	assert.Len(t, report.Leagues[1].Results, 1)
	assert.Equal(t, 1, report.FailureCount())
}

func TestRun_MissingOddsKeepsPrediction(t *testing.T) {
	f := &fakeFetcher{
		fixtures: map[int][]models.Fixture{39: {fixture(1001, 42, "Arsenal", 49, "Chelsea")}},
		form:     map[int]string{42: "W", 49: "L"},
		h2h:      map[string]string{},
		oddsErr:  fmt.Errorf("%w: bad price", client.ErrMalformedResponse),
	}

	report, err := newTestService(f, nil).Run(context.Background(), matchDay)
	require.NoError(t, err)
	require.Equal(t, 1, report.PredictionCount())
	assert.Nil(t, report.Leagues[0].Results[0].Odds)
}

func TestRun_NoHistoryIsNeutral(t *testing.T) {
	f := &fakeFetcher{
		fixtures: map[int][]models.Fixture{39: {fixture(1001, 42, "Arsenal", 49, "Chelsea")}},
		form:     map[int]string{},
		h2h:      map[string]string{},
	}

	report, err := newTestService(f, nil).Run(context.Background(), matchDay)
	require.NoError(t, err)

	result := report.Leagues[0].Results[0]
	assert.Equal(t, 50.0, result.HomeScore.Score)
	assert.Equal(t, 50.0, result.AwayScore.Score)
	assert.Equal(t, models.DrawVerdict, result.Verdict)
}

func TestRun_ArchiveFailureIsNotFatal(t *testing.T) {
	archiver := &recordingArchiver{err: errors.New("connection refused")}

	report, err := newTestService(&fakeFetcher{}, archiver).Run(context.Background(), matchDay)
	require.NoError(t, err)
	assert.NotNil(t, report)
	assert.Len(t, archiver.reports, 1)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestService(&fakeFetcher{}, nil).Run(ctx, matchDay)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_LeagueSeasonOverride(t *testing.T) {
	f := &fakeFetcher{}
	svc := NewService(f, Options{
		Leagues: []models.League{{ID: 2, Name: "UEFA Champions League", Season: 2025}},
		Season:  2024,
	})

	_, err := svc.Run(context.Background(), matchDay)
	require.NoError(t, err)
	assert.Equal(t, []string{"fixtures 2 2024-10-19 2025"}, f.calls)
}

func TestRun_SeasonFollowsRunDate(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), "fixtures 39 2026-10-19 2026"},
		{time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC), "fixtures 39 2027-03-01 2026"},
		{time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), "fixtures 39 2026-07-01 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format("2006-01-02"), func(t *testing.T) {
			f := &fakeFetcher{}
			svc := NewService(f, Options{Leagues: []models.League{{ID: 39, Name: "Premier League"}}})

			_, err := svc.Run(context.Background(), tt.date)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, f.calls)
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", client.ErrUnauthorized)))
	assert.True(t, IsFatal(client.ErrRateLimited))
	assert.True(t, IsFatal(context.DeadlineExceeded))
	assert.False(t, IsFatal(client.ErrMalformedResponse))
	assert.False(t, IsFatal(client.ErrUnexpectedStatus))
	assert.False(t, IsFatal(errors.New("dial tcp: connection refused")))
}
