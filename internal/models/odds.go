package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MatchWinnerMarket is the provider's name for the 1X2 market
const MatchWinnerMarket = "Match Winner"

// OddsQuote holds decimal 1X2 prices from one bookmaker for one fixture
type OddsQuote struct {
	FixtureID     int     `json:"fixture_id"`
	BookmakerID   int     `json:"bookmaker_id"`
	BookmakerName string  `json:"bookmaker_name"`
	Home          float64 `json:"home"`
	Draw          float64 `json:"draw"`
	Away          float64 `json:"away"`
}

// Overround returns the bookmaker margin, e.g. 0.05 for a 105% book
func (q *OddsQuote) Overround() float64 {
	if q.Home <= 0 || q.Draw <= 0 || q.Away <= 0 {
		return 0
	}
	return 1/q.Home + 1/q.Draw + 1/q.Away - 1
}

// ImpliedProbabilities converts the prices to margin-free probabilities
func (q *OddsQuote) ImpliedProbabilities() (home, draw, away float64) {
	if q.Home <= 0 || q.Draw <= 0 || q.Away <= 0 {
		return 0, 0, 0
	}
	rawHome, rawDraw, rawAway := 1/q.Home, 1/q.Draw, 1/q.Away
	total := rawHome + rawDraw + rawAway
	return rawHome / total, rawDraw / total, rawAway / total
}

// OddsInput mirrors one element of the provider's odds response
type OddsInput struct {
	Fixture struct {
		ID int `json:"id"`
	} `json:"fixture"`
	Bookmakers []BookmakerInput `json:"bookmakers"`
}

// BookmakerInput is one bookmaker's markets for a fixture
type BookmakerInput struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Bets []struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Values []struct {
			Value string `json:"value"`
			Odd   string `json:"odd"`
		} `json:"values"`
	} `json:"bets"`
}

// ToOddsQuote extracts the Match Winner prices for the given bookmaker.
// Returns nil without error when the bookmaker or market is not offered.
func (oi *OddsInput) ToOddsQuote(bookmakerID int) (*OddsQuote, error) {
	var book *BookmakerInput
	for i := range oi.Bookmakers {
		if oi.Bookmakers[i].ID == bookmakerID {
			book = &oi.Bookmakers[i]
			break
		}
	}
	if book == nil {
		return nil, nil
	}

	for _, bet := range book.Bets {
		if bet.Name != MatchWinnerMarket {
			continue
		}

		quote := &OddsQuote{
			FixtureID:     oi.Fixture.ID,
			BookmakerID:   book.ID,
			BookmakerName: book.Name,
		}
		for _, v := range bet.Values {
			price, err := strconv.ParseFloat(strings.TrimSpace(v.Odd), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s price %q: %w", v.Value, v.Odd, err)
			}
			if price <= 1 {
				return nil, fmt.Errorf("invalid %s price %q: decimal odds must exceed 1", v.Value, v.Odd)
			}
			switch v.Value {
			case "Home":
				quote.Home = price
			case "Draw":
				quote.Draw = price
			case "Away":
				quote.Away = price
			}
		}

		if quote.Home == 0 || quote.Draw == 0 || quote.Away == 0 {
			return nil, fmt.Errorf("%s market for fixture %d is missing a selection", MatchWinnerMarket, oi.Fixture.ID)
		}
		return quote, nil
	}

	return nil, nil
}
