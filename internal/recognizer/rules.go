// Package recognizer turns score callouts into score transitions.
//
// Each sport has an ordered rule table. Rules are tried top to bottom and
// the first one whose pattern matches decides the outcome, so a transcript
// that could satisfy several rules is resolved by table order alone.
package recognizer

import (
	"github.com/loqalabs/courtcall/internal/score"
)

// Hit is what a rule's pattern captured from the transcript.
type Hit struct {
	Side    score.Side
	Numbers []int
}

// Rule pairs a pattern with the action taken when it matches. Match
// receives the lower-cased transcript.
type Rule struct {
	Name  string
	Match func(text string, s score.ScoreState) (Hit, bool)
	Apply func(e *score.Engine, s score.ScoreState, h Hit) (score.Transition, error)
}

// Table is an ordered rule list; earlier rules take precedence.
type Table []Rule

// Names lists the rules in priority order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for _, r := range t {
		names = append(names, r.Name)
	}
	return names
}

func (t Table) first(text string, s score.ScoreState) (Rule, Hit, bool) {
	for _, r := range t {
		if h, ok := r.Match(text, s); ok {
			return r, h, true
		}
	}
	return Rule{}, Hit{}, false
}

// override returns an Apply that replaces state without consulting the
// engine; the ledger is left untouched.
func override(fn func(s score.ScoreState, h Hit) score.ScoreState) func(*score.Engine, score.ScoreState, Hit) (score.Transition, error) {
	return func(_ *score.Engine, s score.ScoreState, h Hit) (score.Transition, error) {
		return score.Transition{State: fn(s, h)}, nil
	}
}
