package match

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/loqalabs/courtcall/internal/score"
)

// Match is the archived record of a finished match.
type Match struct {
	ID              string
	Sport           score.Sport
	Date            time.Time
	TeamAName       string
	TeamBName       string
	TeamAFinalScore score.Points
	TeamBFinalScore score.Points
	Games           []score.Ledger
	Winner          score.Side
}

type matchWire struct {
	ID              string          `json:"id"`
	Sport           score.Sport     `json:"sport"`
	Date            string          `json:"date"`
	TeamAName       string          `json:"teamAName"`
	TeamBName       string          `json:"teamBName"`
	TeamAFinalScore json.RawMessage `json:"teamAFinalScore"`
	TeamBFinalScore json.RawMessage `json:"teamBFinalScore"`
	Games           []score.Ledger  `json:"games"`
	Winner          score.Side      `json:"winner"`
}

func (m Match) MarshalJSON() ([]byte, error) {
	a, err := json.Marshal(m.TeamAFinalScore)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(m.TeamBFinalScore)
	if err != nil {
		return nil, err
	}
	games := m.Games
	if games == nil {
		games = []score.Ledger{}
	}
	return json.Marshal(matchWire{
		ID:              m.ID,
		Sport:           m.Sport,
		Date:            m.Date.UTC().Format(time.RFC3339Nano),
		TeamAName:       m.TeamAName,
		TeamBName:       m.TeamBName,
		TeamAFinalScore: a,
		TeamBFinalScore: b,
		Games:           games,
		Winner:          m.Winner,
	})
}

func (m *Match) UnmarshalJSON(data []byte) error {
	var wire matchWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	date, err := time.Parse(time.RFC3339Nano, wire.Date)
	if err != nil {
		return fmt.Errorf("match date: %w", err)
	}
	a, err := score.DecodePoints(wire.TeamAFinalScore)
	if err != nil {
		return fmt.Errorf("teamAFinalScore: %w", err)
	}
	b, err := score.DecodePoints(wire.TeamBFinalScore)
	if err != nil {
		return fmt.Errorf("teamBFinalScore: %w", err)
	}
	*m = Match{
		ID:              wire.ID,
		Sport:           wire.Sport,
		Date:            date,
		TeamAName:       wire.TeamAName,
		TeamBName:       wire.TeamBName,
		TeamAFinalScore: a,
		TeamBFinalScore: b,
		Games:           wire.Games,
		Winner:          wire.Winner,
	}
	return nil
}

// DetermineWinner decides the match winner from the final state.
//
// Pickleball goes to the side with the strictly higher score. Tennis has
// no match-level rule yet because sets are not tracked, so it always
// returns NoSide, as does a tie.
func DetermineWinner(s score.ScoreState) score.Side {
	if s.Sport != score.Pickleball {
		return score.NoSide
	}
	a, okA := s.TeamAScore.(score.RallyPoints)
	b, okB := s.TeamBScore.(score.RallyPoints)
	if !okA || !okB {
		return score.NoSide
	}
	switch {
	case a > b:
		return score.SideA
	case b > a:
		return score.SideB
	}
	return score.NoSide
}
