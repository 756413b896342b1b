package score

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		name  string
		state ScoreState
		want  string
	}{
		{name: "tennis plain", state: tennisState(Thirty, Fifteen), want: "30 - 15"},
		{name: "tennis deuce", state: tennisState(Forty, Forty), want: "Deuce"},
		{name: "tennis advantage A", state: tennisState(Advantage, Forty), want: "Advantage Federer"},
		{name: "tennis advantage B", state: tennisState(Forty, Advantage), want: "Advantage Nadal"},
		{name: "pickleball A serving", state: pickleballState(7, 3, true), want: "7 - 3 - 1"},
		{name: "pickleball B serving", state: pickleballState(7, 4, false), want: "4 - 7 - 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Format(tc.state)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}

	if _, err := Format(ScoreState{Sport: "badminton"}); !errors.Is(err, ErrUnsupportedSport) {
		t.Fatalf("expected ErrUnsupportedSport, got %v", err)
	}
}

func TestStateJSONShape(t *testing.T) {
	e := newTestEngine()
	tr, err := e.UpdatePickleball(pickleballState(2, 1, true), SideA)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	data, err := json.Marshal(tr.State)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, fragment := range []string{`"sport":"pickleball"`, `"teamAScore":3`, `"teamBScore":1`, `"teamAServing":true`, `"currentGame":1`, `"isMatchPoint":false`, `"timestamp":1748779200000`} {
		if !strings.Contains(string(data), fragment) {
			t.Fatalf("expected %s in %s", fragment, data)
		}
	}

	var decoded ScoreState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.TeamAScore != RallyPoints(3) || len(decoded.GameHistory) != 1 {
		t.Fatalf("unexpected decoded state %+v", decoded)
	}
}

func TestStateJSONRejectsMixedKinds(t *testing.T) {
	raw := `{"sport":"tennis","teamAScore":15,"teamBScore":"0","teamAName":"a","teamBName":"b","teamAServing":true,"gameHistory":[],"currentGame":1,"isMatchPoint":false}`
	var s ScoreState
	if err := json.Unmarshal([]byte(raw), &s); !errors.Is(err, ErrScoreKind) {
		t.Fatalf("expected ErrScoreKind, got %v", err)
	}

	raw = `{"sport":"tennis","teamAScore":"Game","teamBScore":"0","currentGame":1}`
	if err := json.Unmarshal([]byte(raw), &s); !errors.Is(err, ErrScoreKind) {
		t.Fatalf("expected Game token to be rejected, got %v", err)
	}
}

func TestValidateAdvantage(t *testing.T) {
	if err := tennisState(Advantage, Advantage).Validate(); err == nil {
		t.Fatalf("expected error for double advantage")
	}
	if err := tennisState(Advantage, Thirty).Validate(); err == nil {
		t.Fatalf("expected error for advantage outside deuce")
	}
	if err := tennisState(Advantage, Forty).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSideJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Winner Side `json:"winner"`
	}{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"winner":null}` {
		t.Fatalf("expected null winner, got %s", data)
	}
}

func TestMentionedSide(t *testing.T) {
	s := tennisState(Love, Love)
	if side, ok := s.MentionedSide("game nadal"); !ok || side != SideB {
		t.Fatalf("expected B, got %q %v", side, ok)
	}
	s.TeamAName = ""
	if side, ok := s.MentionedSide("game"); ok {
		t.Fatalf("empty team name must not match, got %q", side)
	}
}
