package score

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Points is one side's score. Tennis states carry TennisPoint values and
// pickleball states carry RallyPoints; the interface is sealed.
type Points interface {
	fmt.Stringer
	kind() Sport
}

// TennisPoint is a token from the tennis call sequence.
type TennisPoint string

const (
	Love      TennisPoint = "0"
	Fifteen   TennisPoint = "15"
	Thirty    TennisPoint = "30"
	Forty     TennisPoint = "40"
	Advantage TennisPoint = "Advantage"

	// tennisGame terminates the sequence. It triggers a game win and is
	// never stored in a state.
	tennisGame TennisPoint = "Game"
)

var tennisSequence = []TennisPoint{Love, Fifteen, Thirty, Forty, tennisGame}

func (p TennisPoint) String() string { return string(p) }
func (TennisPoint) kind() Sport      { return Tennis }

// ParseTennisPoint accepts the storable tennis tokens.
func ParseTennisPoint(value string) (TennisPoint, error) {
	switch p := TennisPoint(value); p {
	case Love, Fifteen, Thirty, Forty, Advantage:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q is not a tennis score", ErrScoreKind, value)
}

func (p TennisPoint) next() TennisPoint {
	for i, step := range tennisSequence[:len(tennisSequence)-1] {
		if step == p {
			return tennisSequence[i+1]
		}
	}
	return p
}

// RallyPoints is a pickleball point count.
type RallyPoints int

func (p RallyPoints) String() string { return strconv.Itoa(int(p)) }
func (RallyPoints) kind() Sport      { return Pickleball }

// ZeroPoints returns the opening score for sport.
func ZeroPoints(sport Sport) (Points, error) {
	switch sport {
	case Tennis:
		return Love, nil
	case Pickleball:
		return RallyPoints(0), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSport, sport)
}

// DecodePoints reads a JSON score value: strings are tennis tokens and
// numbers are rally points.
func DecodePoints(raw json.RawMessage) (Points, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var token string
		if err := json.Unmarshal(trimmed, &token); err != nil {
			return nil, err
		}
		return ParseTennisPoint(token)
	}
	var n int
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrScoreKind, trimmed)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative rally score %d", ErrScoreKind, n)
	}
	return RallyPoints(n), nil
}

func pointsMatch(sport Sport, values ...Points) error {
	for _, v := range values {
		if v == nil || v.kind() != sport {
			return fmt.Errorf("%w: %v in %s state", ErrScoreKind, v, sport)
		}
	}
	return nil
}
