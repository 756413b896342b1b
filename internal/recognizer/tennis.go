package recognizer

import (
	"strings"

	"github.com/loqalabs/courtcall/internal/score"
)

const (
	RuleDeuce     = "deuce"
	RuleAdvantage = "advantage"
	RuleGame      = "game"
)

// TennisRules is the tennis table: deuce, then advantage, then game.
//
// Deuce and advantage are corrections that set the score directly. A game
// call credits one point to the named side through the engine.
func TennisRules() Table {
	return Table{
		{
			Name: RuleDeuce,
			Match: func(text string, _ score.ScoreState) (Hit, bool) {
				return Hit{}, strings.Contains(text, "deuce")
			},
			Apply: override(func(s score.ScoreState, _ Hit) score.ScoreState {
				s.TeamAScore, s.TeamBScore = score.Forty, score.Forty
				return s
			}),
		},
		{
			Name: RuleAdvantage,
			Match: func(text string, s score.ScoreState) (Hit, bool) {
				if !strings.Contains(text, "advantage") {
					return Hit{}, false
				}
				side, ok := s.MentionedSide(text)
				return Hit{Side: side}, ok
			},
			Apply: override(func(s score.ScoreState, h Hit) score.ScoreState {
				if h.Side == score.SideA {
					s.TeamAScore, s.TeamBScore = score.Advantage, score.Forty
				} else {
					s.TeamAScore, s.TeamBScore = score.Forty, score.Advantage
				}
				return s
			}),
		},
		{
			Name: RuleGame,
			Match: func(text string, s score.ScoreState) (Hit, bool) {
				if !strings.Contains(text, "game") || strings.Contains(text, "set") || strings.Contains(text, "match") {
					return Hit{}, false
				}
				side, ok := s.MentionedSide(text)
				return Hit{Side: side}, ok
			},
			Apply: func(e *score.Engine, s score.ScoreState, h Hit) (score.Transition, error) {
				return e.UpdateTennis(s, h.Side)
			},
		},
	}
}
