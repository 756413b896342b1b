package score

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ScoreState is the score of one in-progress match. Engines never modify
// a state in place; every update returns a new value.
type ScoreState struct {
	Sport        Sport
	TeamAScore   Points
	TeamBScore   Points
	TeamAName    string
	TeamBName    string
	TeamAServing bool
	GameHistory  Ledger
	CurrentGame  int
	// IsMatchPoint is carried for display layers; no rule sets it.
	IsMatchPoint bool
}

// NewState opens a match: zero scores, team A serving, game 1.
func NewState(sport Sport, teamAName, teamBName string) (ScoreState, error) {
	zero, err := ZeroPoints(sport)
	if err != nil {
		return ScoreState{}, err
	}
	return ScoreState{
		Sport:        sport,
		TeamAScore:   zero,
		TeamBScore:   zero,
		TeamAName:    teamAName,
		TeamBName:    teamBName,
		TeamAServing: true,
		GameHistory:  Ledger{},
		CurrentGame:  1,
	}, nil
}

// Name returns the display name of side.
func (s ScoreState) Name(side Side) string {
	if side == SideB {
		return s.TeamBName
	}
	return s.TeamAName
}

// Serving reports which side holds serve.
func (s ScoreState) Serving() Side {
	if s.TeamAServing {
		return SideA
	}
	return SideB
}

// Validate checks the structural invariants of s.
func (s ScoreState) Validate() error {
	if !s.Sport.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedSport, s.Sport)
	}
	if err := pointsMatch(s.Sport, s.TeamAScore, s.TeamBScore); err != nil {
		return err
	}
	if s.CurrentGame < 1 {
		return fmt.Errorf("current game must be >= 1, got %d", s.CurrentGame)
	}
	if s.Sport == Tennis {
		a, b := s.TeamAScore.(TennisPoint), s.TeamBScore.(TennisPoint)
		if a == Advantage && b == Advantage {
			return errors.New("both sides cannot hold advantage")
		}
		if (a == Advantage && b != Forty) || (b == Advantage && a != Forty) {
			return errors.New("advantage is only reachable from deuce")
		}
	}
	return nil
}

func (s ScoreState) tennisPoints() (TennisPoint, TennisPoint, error) {
	if s.Sport != Tennis {
		return "", "", fmt.Errorf("%w: %q is not tennis", ErrUnsupportedSport, s.Sport)
	}
	a, okA := s.TeamAScore.(TennisPoint)
	b, okB := s.TeamBScore.(TennisPoint)
	if !okA || !okB {
		return "", "", fmt.Errorf("%w: %v - %v", ErrScoreKind, s.TeamAScore, s.TeamBScore)
	}
	return a, b, nil
}

func (s ScoreState) rallyPoints() (RallyPoints, RallyPoints, error) {
	if s.Sport != Pickleball {
		return 0, 0, fmt.Errorf("%w: %q is not pickleball", ErrUnsupportedSport, s.Sport)
	}
	a, okA := s.TeamAScore.(RallyPoints)
	b, okB := s.TeamBScore.(RallyPoints)
	if !okA || !okB {
		return 0, 0, fmt.Errorf("%w: %v - %v", ErrScoreKind, s.TeamAScore, s.TeamBScore)
	}
	return a, b, nil
}

// mentions reports whether text contains side's team name. An empty name
// never matches.
func (s ScoreState) mentions(text string, side Side) bool {
	name := strings.ToLower(strings.TrimSpace(s.Name(side)))
	return name != "" && strings.Contains(text, name)
}

// MentionedSide returns the first side, A before B, whose team name occurs
// in the lower-cased text.
func (s ScoreState) MentionedSide(text string) (Side, bool) {
	for _, side := range []Side{SideA, SideB} {
		if s.mentions(text, side) {
			return side, true
		}
	}
	return NoSide, false
}

type stateWire struct {
	Sport        Sport           `json:"sport"`
	TeamAScore   json.RawMessage `json:"teamAScore"`
	TeamBScore   json.RawMessage `json:"teamBScore"`
	TeamAName    string          `json:"teamAName"`
	TeamBName    string          `json:"teamBName"`
	TeamAServing bool            `json:"teamAServing"`
	GameHistory  Ledger          `json:"gameHistory"`
	CurrentGame  int             `json:"currentGame"`
	IsMatchPoint bool            `json:"isMatchPoint"`
}

func (s ScoreState) MarshalJSON() ([]byte, error) {
	a, err := json.Marshal(s.TeamAScore)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(s.TeamBScore)
	if err != nil {
		return nil, err
	}
	return json.Marshal(stateWire{
		Sport:        s.Sport,
		TeamAScore:   a,
		TeamBScore:   b,
		TeamAName:    s.TeamAName,
		TeamBName:    s.TeamBName,
		TeamAServing: s.TeamAServing,
		GameHistory:  s.GameHistory,
		CurrentGame:  s.CurrentGame,
		IsMatchPoint: s.IsMatchPoint,
	})
}

// UnmarshalJSON decodes and validates a stored state.
func (s *ScoreState) UnmarshalJSON(data []byte) error {
	var wire stateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	a, err := DecodePoints(wire.TeamAScore)
	if err != nil {
		return fmt.Errorf("teamAScore: %w", err)
	}
	b, err := DecodePoints(wire.TeamBScore)
	if err != nil {
		return fmt.Errorf("teamBScore: %w", err)
	}
	decoded := ScoreState{
		Sport:        wire.Sport,
		TeamAScore:   a,
		TeamBScore:   b,
		TeamAName:    wire.TeamAName,
		TeamBName:    wire.TeamBName,
		TeamAServing: wire.TeamAServing,
		GameHistory:  wire.GameHistory,
		CurrentGame:  wire.CurrentGame,
		IsMatchPoint: wire.IsMatchPoint,
	}
	if decoded.GameHistory == nil {
		decoded.GameHistory = Ledger{}
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}
