package score

import "testing"

func pickleballState(a, b RallyPoints, aServing bool) ScoreState {
	s, _ := NewState(Pickleball, "Dinkers", "Bangers")
	s.TeamAScore, s.TeamBScore = a, b
	s.TeamAServing = aServing
	return s
}

func TestPickleballServingSideScores(t *testing.T) {
	e := newTestEngine()
	tr, err := e.UpdatePickleball(pickleballState(3, 2, true), SideA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := tr.State
	if s.TeamAScore != RallyPoints(4) || s.TeamBScore != RallyPoints(2) {
		t.Fatalf("expected 4-2, got %v-%v", s.TeamAScore, s.TeamBScore)
	}
	if !s.TeamAServing {
		t.Fatalf("scoring rally must not flip serve")
	}
	if len(s.GameHistory) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(s.GameHistory))
	}
}

func TestPickleballSideOut(t *testing.T) {
	cases := []struct {
		name     string
		aServing bool
		side     Side
	}{
		{name: "B claims while A serves", aServing: true, side: SideB},
		{name: "A claims while B serves", aServing: false, side: SideA},
	}
	e := newTestEngine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := e.UpdatePickleball(pickleballState(5, 7, tc.aServing), tc.side)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			s := tr.State
			if s.TeamAScore != RallyPoints(5) || s.TeamBScore != RallyPoints(7) {
				t.Fatalf("side-out changed score to %v-%v", s.TeamAScore, s.TeamBScore)
			}
			if s.TeamAServing == tc.aServing {
				t.Fatalf("side-out must flip serve")
			}
			if tr.GameWon() {
				t.Fatalf("side-out must not win a game")
			}
		})
	}
}

func TestPickleballGameWin(t *testing.T) {
	e := newTestEngine()
	tr, err := e.UpdatePickleball(pickleballState(10, 9, true), SideA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Winner != SideA {
		t.Fatalf("expected A to win, got %q", tr.Winner)
	}
	s := tr.State
	if s.TeamAScore != RallyPoints(0) || s.TeamBScore != RallyPoints(0) {
		t.Fatalf("expected reset, got %v-%v", s.TeamAScore, s.TeamBScore)
	}
	if s.CurrentGame != 2 {
		t.Fatalf("expected game 2, got %d", s.CurrentGame)
	}
	if s.TeamAServing {
		t.Fatalf("expected serve to pass to B after the game")
	}
	final, ok := tr.CompletedGame.Last()
	if !ok || final.TeamAScore != RallyPoints(11) || final.TeamBScore != RallyPoints(9) {
		t.Fatalf("expected final entry 11-9, got %+v", final)
	}
}

func TestPickleballWinByTwo(t *testing.T) {
	e := newTestEngine()
	tr, err := e.UpdatePickleball(pickleballState(10, 10, true), SideA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.GameWon() {
		t.Fatalf("11-10 must not end the game")
	}
	tr, err = e.UpdatePickleball(tr.State, SideA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Winner != SideA {
		t.Fatalf("12-10 should end the game, got winner %q", tr.Winner)
	}
}

func TestPickleballGameWinnerProperty(t *testing.T) {
	e := newTestEngine()
	for a := RallyPoints(0); a <= 15; a++ {
		for b := RallyPoints(0); b <= 15; b++ {
			winner, won := PickleballGameWinner(a, b)
			lead := a - b
			if lead < 0 {
				lead = -lead
			}
			expected := (a >= 11 || b >= 11) && lead >= 2
			if won != expected {
				t.Fatalf("%d-%d: expected won=%v, got %v", a, b, expected, won)
			}
			if !won {
				continue
			}
			tr, err := e.HandleGameWin(pickleballState(a, b, true), winner)
			if err != nil {
				t.Fatalf("%d-%d: %v", a, b, err)
			}
			if tr.State.TeamAScore != RallyPoints(0) || tr.State.TeamBScore != RallyPoints(0) || tr.State.CurrentGame != 2 {
				t.Fatalf("%d-%d: unexpected post-game state %+v", a, b, tr.State)
			}
		}
	}
}

func TestPickleballSideOutOnWinningScoreStillClosesGame(t *testing.T) {
	e := newTestEngine()
	// A recognizer override can leave a finished score on the board; the
	// next rally closes the game.
	tr, err := e.UpdatePickleball(pickleballState(13, 4, false), SideA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Winner != SideA {
		t.Fatalf("expected A to win, got %q", tr.Winner)
	}
	if tr.State.TeamAServing {
		t.Fatalf("side-out gave A the serve and the game rollover hands it back to B")
	}
}
