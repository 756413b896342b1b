package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/loqalabs/courtcall/internal/match"
	"github.com/loqalabs/courtcall/internal/score"
)

type fakeBoard struct {
	state   *score.ScoreState
	history []match.Match
}

func (f fakeBoard) Snapshot() (score.ScoreState, string, bool) {
	if f.state == nil {
		return score.ScoreState{}, "", false
	}
	display, _ := score.Format(*f.state)
	return *f.state, display, true
}

func (f fakeBoard) History() []match.Match { return f.history }

func serve(t *testing.T, mux http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestMatchEndpoints(t *testing.T) {
	state, err := score.NewState(score.Pickleball, "Dinkers", "Bangers")
	if err != nil {
		t.Fatal(err)
	}
	state.TeamAScore = score.RallyPoints(7)
	state.TeamBScore = score.RallyPoints(3)
	finished := match.Match{
		ID:              "match-1",
		Sport:           score.Tennis,
		Date:            time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC),
		TeamAName:       "Federer",
		TeamBName:       "Nadal",
		TeamAFinalScore: score.Forty,
		TeamBFinalScore: score.Thirty,
		Games:           []score.Ledger{nil},
	}
	mux := newMux(fakeBoard{state: &state, history: []match.Match{finished}}, func() bool { return true }, nil)

	rec := serve(t, mux, http.MethodGet, "/v1/match")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		State   score.ScoreState `json:"state"`
		Display string           `json:"display"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Display != "7 - 3 - 1" || body.State.TeamAName != "Dinkers" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = serve(t, mux, http.MethodGet, "/v1/matches")
	var history []match.Match
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].ID != "match-1" || history[0].TeamAFinalScore != score.Forty {
		t.Fatalf("unexpected history %s", rec.Body.String())
	}

	if rec := serve(t, mux, http.MethodPost, "/v1/matches"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestNoActiveMatch(t *testing.T) {
	mux := newMux(fakeBoard{}, func() bool { return false }, nil)

	rec := serve(t, mux, http.MethodGet, "/v1/match")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = serve(t, mux, http.MethodGet, "/v1/matches")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %q", rec.Body.String())
	}
	if rec := serve(t, mux, http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec := serve(t, mux, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := serve(t, mux, http.MethodGet, "/metrics"); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics should be absent without a handler, got %d", rec.Code)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected log output %q", out)
	}
	if !NewLogger(&buf, "nonsense").Enabled(context.Background(), 0) {
		t.Fatalf("unknown levels should fall back to info")
	}
}
