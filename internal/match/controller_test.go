package match

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/loqalabs/courtcall/internal/score"
)

var endedAt = time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC)

func newTestController() *Controller {
	ids := 0
	return NewController(
		WithClock(func() time.Time { return endedAt }),
		WithIDs(func() string {
			ids++
			return "match-" + string(rune('0'+ids))
		}),
	)
}

func TestStartFreshState(t *testing.T) {
	c := newTestController()
	s, err := c.Start(score.Pickleball, "Dinkers", "Bangers")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.TeamAScore != score.RallyPoints(0) || s.TeamBScore != score.RallyPoints(0) {
		t.Fatalf("expected 0-0, got %v-%v", s.TeamAScore, s.TeamBScore)
	}
	if !s.TeamAServing || s.CurrentGame != 1 || s.IsMatchPoint || len(s.GameHistory) != 0 {
		t.Fatalf("unexpected opening state %+v", s)
	}
	active, ok := c.Active()
	if !ok || active.TeamAName != "Dinkers" {
		t.Fatalf("expected active match, got %+v ok=%v", active, ok)
	}
}

func TestStartRejectsUnknownSport(t *testing.T) {
	c := newTestController()
	if _, err := c.Start("squash", "a", "b"); !errors.Is(err, score.ErrUnsupportedSport) {
		t.Fatalf("expected ErrUnsupportedSport, got %v", err)
	}
	if _, ok := c.Active(); ok {
		t.Fatalf("failed start must not leave an active match")
	}
}

func TestStartArchivesActiveMatch(t *testing.T) {
	c := newTestController()
	if _, err := c.Start(score.Tennis, "A", "B"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.Start(score.Pickleball, "C", "D"); err != nil {
		t.Fatalf("start: %v", err)
	}
	history := c.History()
	if len(history) != 1 {
		t.Fatalf("expected first match archived, got %d", len(history))
	}
	if history[0].Sport != score.Tennis || history[0].TeamAName != "A" {
		t.Fatalf("unexpected archived match %+v", history[0])
	}
	active, _ := c.Active()
	if active.Sport != score.Pickleball {
		t.Fatalf("expected new pickleball match active")
	}
}

func TestUpdateAndEndWithoutMatchAreNoops(t *testing.T) {
	c := newTestController()
	if _, ok, err := c.Update(Patch{TeamAScore: score.RallyPoints(3)}); ok || err != nil {
		t.Fatalf("update without match should report false")
	}
	if _, ok := c.End(); ok {
		t.Fatalf("end without match should report false")
	}
	if len(c.History()) != 0 {
		t.Fatalf("no-op end must not archive")
	}
}

func TestUpdateMergesPatch(t *testing.T) {
	c := newTestController()
	if _, err := c.Start(score.Pickleball, "A", "B"); err != nil {
		t.Fatalf("start: %v", err)
	}
	serving := false
	s, ok, err := c.Update(Patch{TeamBScore: score.RallyPoints(4), TeamAServing: &serving})
	if !ok || err != nil {
		t.Fatalf("expected update to apply, got ok=%v err=%v", ok, err)
	}
	if s.TeamAScore != score.RallyPoints(0) || s.TeamBScore != score.RallyPoints(4) || s.TeamAServing {
		t.Fatalf("unexpected merged state %+v", s)
	}
	if s.TeamAName != "A" || s.CurrentGame != 1 {
		t.Fatalf("unpatched fields must be kept, got %+v", s)
	}
}

func TestUpdateRejectsWrongSportScore(t *testing.T) {
	c := newTestController()
	if _, err := c.Start(score.Tennis, "A", "B"); err != nil {
		t.Fatalf("start: %v", err)
	}
	s, ok, err := c.Update(Patch{TeamAScore: score.RallyPoints(37)})
	if !ok {
		t.Fatalf("expected an active match")
	}
	if !errors.Is(err, score.ErrScoreKind) {
		t.Fatalf("expected score kind error, got %v", err)
	}
	if s.TeamAScore != score.Love {
		t.Fatalf("rejected update must return the unchanged state, got %+v", s)
	}
	active, _ := c.Active()
	if active.TeamAScore != score.Love {
		t.Fatalf("active match changed by rejected update: %+v", active)
	}
	if _, err := score.Format(active); err != nil {
		t.Fatalf("active match must stay formattable: %v", err)
	}
}

func TestEndDeterminesWinner(t *testing.T) {
	c := newTestController()
	if _, err := c.Start(score.Pickleball, "A", "B"); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Update(Patch{TeamAScore: score.RallyPoints(11), TeamBScore: score.RallyPoints(9)})
	m, ok := c.End()
	if !ok {
		t.Fatalf("expected end to archive")
	}
	if m.Winner != score.SideA {
		t.Fatalf("expected A to win, got %q", m.Winner)
	}
	if m.ID != "match-1" || !m.Date.Equal(endedAt) {
		t.Fatalf("unexpected id/date %s %s", m.ID, m.Date)
	}
	if len(m.Games) != 1 {
		t.Fatalf("expected the final game ledger, got %d games", len(m.Games))
	}
	if _, ok := c.Active(); ok {
		t.Fatalf("end must clear the active match")
	}

	if _, err := c.Start(score.Tennis, "A", "B"); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Update(Patch{TeamAScore: score.Forty})
	m, _ = c.End()
	if m.Winner != score.NoSide {
		t.Fatalf("tennis has no winner rule, got %q", m.Winner)
	}

	history := c.History()
	if len(history) != 2 || history[0].Sport != score.Tennis {
		t.Fatalf("expected newest first, got %+v", history)
	}
	c.ClearHistory()
	if len(c.History()) != 0 {
		t.Fatalf("expected history cleared")
	}
}

func TestDetermineWinner(t *testing.T) {
	cases := []struct {
		name string
		a, b score.RallyPoints
		want score.Side
	}{
		{name: "A ahead", a: 11, b: 9, want: score.SideA},
		{name: "B ahead", a: 4, b: 6, want: score.SideB},
		{name: "tie", a: 5, b: 5, want: score.NoSide},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := score.NewState(score.Pickleball, "A", "B")
			s.TeamAScore, s.TeamBScore = tc.a, tc.b
			if got := DetermineWinner(s); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResumeValidates(t *testing.T) {
	c := newTestController()
	bad := score.ScoreState{Sport: score.Tennis, TeamAScore: score.Advantage, TeamBScore: score.Advantage, CurrentGame: 1}
	if err := c.Resume(bad); err == nil {
		t.Fatalf("expected invalid state to be rejected")
	}
	good, _ := score.NewState(score.Tennis, "A", "B")
	if err := c.Resume(good); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, ok := c.Active(); !ok {
		t.Fatalf("expected resumed match active")
	}
}

func TestMatchJSON(t *testing.T) {
	c := newTestController()
	if _, err := c.Start(score.Tennis, "A", "B"); err != nil {
		t.Fatalf("start: %v", err)
	}
	m, _ := c.End()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, fragment := range []string{`"id":"match-1"`, `"date":"2025-07-04T18:30:00Z"`, `"teamAFinalScore":"0"`, `"winner":null`, `"games":[[]]`} {
		if !strings.Contains(string(data), fragment) {
			t.Fatalf("expected %s in %s", fragment, data)
		}
	}
	var decoded Match
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.TeamAFinalScore != score.Love || decoded.Winner != score.NoSide {
		t.Fatalf("unexpected decoded match %+v", decoded)
	}
}
