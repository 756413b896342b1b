package score

import "fmt"

// Format renders the score the way it is called aloud.
//
// Tennis: "Deuce" at 40-40, "Advantage <team>", otherwise "<A> - <B>".
// Pickleball: "<server> - <receiver> - <server number>".
func Format(s ScoreState) (string, error) {
	switch s.Sport {
	case Tennis:
		a, b, err := s.tennisPoints()
		if err != nil {
			return "", err
		}
		switch {
		case a == Forty && b == Forty:
			return "Deuce", nil
		case a == Advantage:
			return "Advantage " + s.TeamAName, nil
		case b == Advantage:
			return "Advantage " + s.TeamBName, nil
		}
		return fmt.Sprintf("%s - %s", a, b), nil
	case Pickleball:
		a, b, err := s.rallyPoints()
		if err != nil {
			return "", err
		}
		server, receiver := a, b
		if !s.TeamAServing {
			server, receiver = b, a
		}
		return fmt.Sprintf("%d - %d - %d", server, receiver, ServerNumber(s)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSport, s.Sport)
}

// ServerNumber approximates the doubles server number from score parity:
// 1 when the combined score is even, 2 when odd. Non-pickleball states
// return 0.
func ServerNumber(s ScoreState) int {
	a, b, err := s.rallyPoints()
	if err != nil {
		return 0
	}
	if (a+b)%2 == 0 {
		return 1
	}
	return 2
}
