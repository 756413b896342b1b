package score

import "fmt"

// UpdateTennis credits one point to side.
//
// A side holding advantage wins the game. A point against advantage
// returns the game to deuce, and a point at deuce grants advantage.
// Otherwise the side moves one step along 0, 15, 30, 40, Game.
func (e *Engine) UpdateTennis(s ScoreState, side Side) (Transition, error) {
	if !side.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	a, b, err := s.tennisPoints()
	if err != nil {
		return Transition{}, err
	}
	own, other := a, b
	if side == SideB {
		own, other = b, a
	}

	switch {
	case own == Advantage:
		return e.HandleGameWin(s, side)
	case other == Advantage:
		own, other = Forty, Forty
	case own == Forty && other == Forty:
		own = Advantage
	default:
		own = own.next()
		if own == tennisGame {
			return e.HandleGameWin(s, side)
		}
	}

	next := s
	if side == SideA {
		next.TeamAScore, next.TeamBScore = own, other
	} else {
		next.TeamAScore, next.TeamBScore = other, own
	}
	return e.record(next), nil
}
