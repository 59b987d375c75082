package models

import (
	"fmt"
	"strings"
)

// Outcome is the result of one finished match from a single team's perspective
type Outcome string

const (
	Win  Outcome = "W"
	Draw Outcome = "D"
	Loss Outcome = "L"
)

// Invert returns the outcome as seen by the opponent
func (o Outcome) Invert() Outcome {
	switch o {
	case Win:
		return Loss
	case Loss:
		return Win
	default:
		return o
	}
}

// Valid reports whether o is one of the three known symbols
func (o Outcome) Valid() bool {
	return o == Win || o == Draw || o == Loss
}

// ParseOutcomes parses a compact form string such as "WWDLW"
func ParseOutcomes(s string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(s))
	for _, r := range strings.ToUpper(s) {
		o := Outcome(r)
		if !o.Valid() {
			return nil, fmt.Errorf("invalid outcome symbol %q", r)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// FormatOutcomes joins outcomes into a compact string, most recent first
func FormatOutcomes(outcomes []Outcome) string {
	var b strings.Builder
	for _, o := range outcomes {
		b.WriteString(string(o))
	}
	return b.String()
}

// FormRecord holds a team's recent results, most recent first
type FormRecord struct {
	TeamID   int       `json:"team_id"`
	Outcomes []Outcome `json:"outcomes"`
}

// String returns the compact form string
func (f FormRecord) String() string {
	return FormatOutcomes(f.Outcomes)
}

// H2HRecord holds past results between two teams from TeamID's perspective, most recent first
type H2HRecord struct {
	TeamID     int       `json:"team_id"`
	OpponentID int       `json:"opponent_id"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Mirror returns the same history seen from the opponent's side
func (h H2HRecord) Mirror() H2HRecord {
	mirrored := H2HRecord{
		TeamID:     h.OpponentID,
		OpponentID: h.TeamID,
		Outcomes:   make([]Outcome, len(h.Outcomes)),
	}
	for i, o := range h.Outcomes {
		mirrored.Outcomes[i] = o.Invert()
	}
	return mirrored
}

// String returns the compact head-to-head string
func (h H2HRecord) String() string {
	return FormatOutcomes(h.Outcomes)
}
