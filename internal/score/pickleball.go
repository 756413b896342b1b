package score

import "fmt"

const (
	pickleballTarget = 11
	pickleballMargin = 2
)

// UpdatePickleball applies one rally won by side. Only the serving side
// scores; a rally won by the receiving side is a side-out and hands over
// the serve without changing either score. The game check runs after
// every rally.
func (e *Engine) UpdatePickleball(s ScoreState, side Side) (Transition, error) {
	if !side.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	a, b, err := s.rallyPoints()
	if err != nil {
		return Transition{}, err
	}

	next := s
	if side == s.Serving() {
		if side == SideA {
			a++
		} else {
			b++
		}
		next.TeamAScore, next.TeamBScore = a, b
	} else {
		next.TeamAServing = !s.TeamAServing
	}

	if winner, ok := PickleballGameWinner(a, b); ok {
		return e.HandleGameWin(next, winner)
	}
	return e.record(next), nil
}

// PickleballGameWinner reports the side that has reached 11 with a two
// point lead, if any.
func PickleballGameWinner(a, b RallyPoints) (Side, bool) {
	switch {
	case a >= pickleballTarget && a-b >= pickleballMargin:
		return SideA, true
	case b >= pickleballTarget && b-a >= pickleballMargin:
		return SideB, true
	}
	return NoSide, false
}
