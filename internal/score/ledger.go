package score

import (
	"encoding/json"
	"time"
)

// GamePoint is a snapshot of the score taken when a point is played.
type GamePoint struct {
	Timestamp    time.Time
	TeamAScore   Points
	TeamBScore   Points
	TeamAServing bool
	Game         int
}

type gamePointWire struct {
	Timestamp    int64           `json:"timestamp"`
	TeamAScore   json.RawMessage `json:"teamAScore"`
	TeamBScore   json.RawMessage `json:"teamBScore"`
	TeamAServing bool            `json:"teamAServing"`
	Game         int             `json:"game"`
}

// MarshalJSON writes the timestamp as Unix milliseconds.
func (p GamePoint) MarshalJSON() ([]byte, error) {
	a, err := json.Marshal(p.TeamAScore)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(p.TeamBScore)
	if err != nil {
		return nil, err
	}
	return json.Marshal(gamePointWire{
		Timestamp:    p.Timestamp.UnixMilli(),
		TeamAScore:   a,
		TeamBScore:   b,
		TeamAServing: p.TeamAServing,
		Game:         p.Game,
	})
}

func (p *GamePoint) UnmarshalJSON(data []byte) error {
	var wire gamePointWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	a, err := DecodePoints(wire.TeamAScore)
	if err != nil {
		return err
	}
	b, err := DecodePoints(wire.TeamBScore)
	if err != nil {
		return err
	}
	*p = GamePoint{
		Timestamp:    time.UnixMilli(wire.Timestamp).UTC(),
		TeamAScore:   a,
		TeamBScore:   b,
		TeamAServing: wire.TeamAServing,
		Game:         wire.Game,
	}
	return nil
}

// Ledger is the ordered log of points within the current game. It only
// grows by Append and is replaced wholesale when a game ends.
type Ledger []GamePoint

// Append returns a new ledger with p at the end. The receiver's backing
// array is never written, so earlier states stay intact.
func (l Ledger) Append(p GamePoint) Ledger {
	out := make(Ledger, len(l), len(l)+1)
	copy(out, l)
	return append(out, p)
}

func (l Ledger) Last() (GamePoint, bool) {
	if len(l) == 0 {
		return GamePoint{}, false
	}
	return l[len(l)-1], true
}

func (l Ledger) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]GamePoint(l))
}

func snapshot(s ScoreState, at time.Time) GamePoint {
	return GamePoint{
		Timestamp:    at,
		TeamAScore:   s.TeamAScore,
		TeamBScore:   s.TeamBScore,
		TeamAServing: s.TeamAServing,
		Game:         s.CurrentGame,
	}
}
