package score

import (
	"fmt"
	"time"
)

// Transition is the result of playing a point.
type Transition struct {
	State ScoreState
	// Winner is set when the point closed a game.
	Winner Side
	// CompletedGame holds the closed game's ledger, final point included.
	// The ledger on State has already been reset.
	CompletedGame Ledger
}

func (t Transition) GameWon() bool { return t.Winner != NoSide }

// Engine applies the per-sport scoring rules. It holds no match state;
// the clock only stamps ledger entries.
type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Point credits a rally to side using the rules of the state's sport.
func (e *Engine) Point(s ScoreState, side Side) (Transition, error) {
	switch s.Sport {
	case Tennis:
		return e.UpdateTennis(s, side)
	case Pickleball:
		return e.UpdatePickleball(s, side)
	}
	return Transition{}, fmt.Errorf("%w: %q", ErrUnsupportedSport, s.Sport)
}

// HandleGameWin closes the current game for winner: the pre-reset score is
// recorded as the final ledger entry, both scores return to zero, the
// ledger is cleared and the game counter advances. Pickleball also hands
// the serve to the other side.
func (e *Engine) HandleGameWin(s ScoreState, winner Side) (Transition, error) {
	if !winner.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrInvalidSide, winner)
	}
	zero, err := ZeroPoints(s.Sport)
	if err != nil {
		return Transition{}, err
	}
	completed := s.GameHistory.Append(snapshot(s, e.stamp()))

	next := s
	next.TeamAScore = zero
	next.TeamBScore = zero
	if s.Sport == Pickleball {
		next.TeamAServing = !s.TeamAServing
	}
	next.GameHistory = Ledger{}
	next.CurrentGame = s.CurrentGame + 1
	next.IsMatchPoint = false

	return Transition{State: next, Winner: winner, CompletedGame: completed}, nil
}

// record appends the post-update score to the ledger.
func (e *Engine) record(s ScoreState) Transition {
	s.GameHistory = s.GameHistory.Append(snapshot(s, e.stamp()))
	return Transition{State: s}
}

func (e *Engine) stamp() time.Time {
	return e.now().UTC()
}
