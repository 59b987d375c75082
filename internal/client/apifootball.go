package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"matchday/predictor/internal/metrics"
	"matchday/predictor/internal/models"

	"github.com/rs/zerolog/log"
)

// Bet365 is the API-Football bookmaker id quoted by default (BOOKMAKER_ID)
const Bet365 = 8

// ResponseCache stores raw API payloads between calls
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures a Client
type Options struct {
	BaseURL  string
	APIKey   string
	APIHost  string
	Timeout  time.Duration
	Cache    ResponseCache // optional
	CacheTTL time.Duration
}

// Client is the API-Football client
type Client struct {
	baseURL    string
	apiKey     string
	apiHost    string
	httpClient *http.Client
	cache      ResponseCache
	cacheTTL   time.Duration
}

// NewClient creates a new API-Football client
func NewClient(opts Options) *Client {
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		apiHost:  opts.APIHost,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// envelope is the wrapper every API-Football endpoint returns
type envelope struct {
	Get      string          `json:"get"`
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

// get performs a single GET request. There is no retry: a failed call is reported to the caller.
func (c *Client) get(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	if c.cache != nil {
		if body, ok := c.cached(ctx, endpoint); ok {
			return c.decodeEnvelope(path, body)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-rapidapi-key", c.apiKey)
	if c.apiHost != "" {
		req.Header.Set("x-rapidapi-host", c.apiHost)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "matchday-predictor/1.0")

	log.Debug().
		Str("path", path).
		Str("query", query.Encode()).
		Msg("Making API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(path, "network_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("API request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordAPICall(path, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("size", len(body)).
			Msg("API request successful")

	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w (status %d): %s", ErrUnauthorized, resp.StatusCode, truncate(body))

	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w (status %d): %s", ErrRateLimited, resp.StatusCode, truncate(body))

	default:
		return nil, fmt.Errorf("%w %d on %s: %s", ErrUnexpectedStatus, resp.StatusCode, path, truncate(body))
	}

	data, err := c.decodeEnvelope(path, body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, endpoint, body, c.cacheTTL); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to cache API response")
		}
	}

	return data, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]byte, bool) {
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("Response cache lookup failed, calling API")
		return nil, false
	}
	if !ok {
		metrics.RecordCacheMiss()
		return nil, false
	}
	metrics.RecordCacheHit()
	return body, true
}

// decodeEnvelope unwraps the response array and surfaces provider errors
func (c *Client) decodeEnvelope(path string, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}

	if msgs := providerErrors(env.Errors); len(msgs) > 0 {
		joined := strings.Join(msgs, "; ")
		lower := strings.ToLower(joined)
		if strings.Contains(lower, "token") || strings.Contains(lower, "key") || strings.Contains(lower, "subscription") {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, joined)
		}
		if strings.Contains(lower, "ratelimit") || strings.Contains(lower, "requests") {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, joined)
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrAPI, path, joined)
	}

	if len(env.Response) == 0 || string(env.Response) == "null" {
		return nil, fmt.Errorf("%w: %s: missing response field", ErrMalformedResponse, path)
	}

	return env.Response, nil
}

// providerErrors flattens the errors field, which is [] when empty and an object or array otherwise
func providerErrors(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil {
		keys := make([]string, 0, len(asMap))
		for k := range asMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, fmt.Sprintf("%s: %s", k, asMap[k]))
		}
		return msgs
	}

	var asList []string
	if err := json.Unmarshal(raw, &asList); err == nil {
		return asList
	}

	return []string{string(raw)}
}

func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// FetchFixturesByDate fetches the fixtures of one league on one day
func (c *Client) FetchFixturesByDate(ctx context.Context, date time.Time, leagueID, season int) ([]models.Fixture, error) {
	data, err := c.get(ctx, "fixtures", map[string]string{
		"date":   date.Format("2006-01-02"),
		"league": strconv.Itoa(leagueID),
		"season": strconv.Itoa(season),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures: %w", err)
	}

	var inputs []models.FixtureInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal fixtures: %v", ErrMalformedResponse, err)
	}

	fixtures := make([]models.Fixture, 0, len(inputs))
	for i := range inputs {
		fixture, err := inputs[i].ToFixture()
		if err != nil {
			log.Warn().Err(err).Int("league_id", leagueID).Msg("Skipping malformed fixture")
			continue
		}
		fixtures = append(fixtures, fixture)
	}

	sort.SliceStable(fixtures, func(i, j int) bool {
		return fixtures[i].Kickoff.Before(fixtures[j].Kickoff)
	})

	return fixtures, nil
}

// fetchFinished fetches fixtures and keeps the finished ones, most recent first
func (c *Client) fetchFinished(ctx context.Context, path string, params map[string]string) ([]models.Fixture, error) {
	data, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	var inputs []models.FixtureInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal fixtures: %v", ErrMalformedResponse, err)
	}

	fixtures := make([]models.Fixture, 0, len(inputs))
	for i := range inputs {
		fixture, err := inputs[i].ToFixture()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if fixture.IsFinished() {
			fixtures = append(fixtures, fixture)
		}
	}

	sort.SliceStable(fixtures, func(i, j int) bool {
		return fixtures[i].Kickoff.After(fixtures[j].Kickoff)
	})

	return fixtures, nil
}

// FetchLastFixtures fetches a team's last n finished matches as a FormRecord
func (c *Client) FetchLastFixtures(ctx context.Context, teamID, n int) (models.FormRecord, error) {
	record := models.FormRecord{TeamID: teamID}

	fixtures, err := c.fetchFinished(ctx, "fixtures", map[string]string{
		"team": strconv.Itoa(teamID),
		"last": strconv.Itoa(n),
	})
	if err != nil {
		return record, fmt.Errorf("failed to fetch form for team %d: %w", teamID, err)
	}

	for i := range fixtures {
		if len(record.Outcomes) == n {
			break
		}
		if outcome, ok := fixtures[i].OutcomeFor(teamID); ok {
			record.Outcomes = append(record.Outcomes, outcome)
		}
	}

	return record, nil
}

// FetchHeadToHead fetches the last n finished meetings between two teams,
// seen from teamID's side
func (c *Client) FetchHeadToHead(ctx context.Context, teamID, opponentID, n int) (models.H2HRecord, error) {
	record := models.H2HRecord{TeamID: teamID, OpponentID: opponentID}

	// The API expects both team ids joined by a dash
	fixtures, err := c.fetchFinished(ctx, "fixtures/headtohead", map[string]string{
		"h2h":  fmt.Sprintf("%d-%d", teamID, opponentID),
		"last": strconv.Itoa(n),
	})
	if err != nil {
		return record, fmt.Errorf("failed to fetch head-to-head %d-%d: %w", teamID, opponentID, err)
	}

	for i := range fixtures {
		if len(record.Outcomes) == n {
			break
		}
		if fixtures[i].Opponent(teamID).ID != opponentID {
			continue
		}
		if outcome, ok := fixtures[i].OutcomeFor(teamID); ok {
			record.Outcomes = append(record.Outcomes, outcome)
		}
	}

	return record, nil
}

// FetchOdds fetches the Match Winner prices of one bookmaker for a fixture.
// Returns nil without error when the bookmaker has no such market.
func (c *Client) FetchOdds(ctx context.Context, fixtureID, bookmakerID int) (*models.OddsQuote, error) {
	data, err := c.get(ctx, "odds", map[string]string{
		"fixture":   strconv.Itoa(fixtureID),
		"bookmaker": strconv.Itoa(bookmakerID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch odds for fixture %d: %w", fixtureID, err)
	}

	var inputs []models.OddsInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal odds: %v", ErrMalformedResponse, err)
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	quote, err := inputs[0].ToOddsQuote(bookmakerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return quote, nil
}

// FetchLeagues fetches the leagues the provider covers, optionally for one country
func (c *Client) FetchLeagues(ctx context.Context, country string) ([]models.League, error) {
	params := map[string]string{}
	if country != "" {
		params["country"] = country
	}

	data, err := c.get(ctx, "leagues", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leagues: %w", err)
	}

	var inputs []models.LeagueInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal leagues: %v", ErrMalformedResponse, err)
	}

	leagues := make([]models.League, 0, len(inputs))
	for i := range inputs {
		leagues = append(leagues, inputs[i].ToLeague())
	}
	return leagues, nil
}
