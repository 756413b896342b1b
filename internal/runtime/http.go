package runtime

import (
	"encoding/json"
	"net/http"

	"github.com/loqalabs/courtcall/internal/match"
	"github.com/loqalabs/courtcall/internal/score"
)

// scoreboard is the read side of the scorekeeper served over HTTP.
type scoreboard interface {
	Snapshot() (score.ScoreState, string, bool)
	History() []match.Match
}

type matchResponse struct {
	State   score.ScoreState `json:"state"`
	Display string           `json:"display"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newMux(board scoreboard, ready func() bool, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
	})
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	mux.HandleFunc("GET /v1/match", func(w http.ResponseWriter, _ *http.Request) {
		state, display, ok := board.Snapshot()
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: match.ErrNoActiveMatch.Error()})
			return
		}
		writeJSON(w, http.StatusOK, matchResponse{State: state, Display: display})
	})
	mux.HandleFunc("GET /v1/matches", func(w http.ResponseWriter, _ *http.Request) {
		history := board.History()
		if history == nil {
			history = []match.Match{}
		}
		writeJSON(w, http.StatusOK, history)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
