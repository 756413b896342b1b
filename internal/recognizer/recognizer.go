package recognizer

import (
	"fmt"
	"strings"

	"github.com/loqalabs/courtcall/internal/score"
)

// Event is a recognized score event.
type Event struct {
	Rule string
	Hit  Hit
	score.Transition
}

// Recognizer dispatches transcripts to the rule table of the state's sport.
type Recognizer struct {
	engine *score.Engine
	tables map[score.Sport]Table
}

func New(engine *score.Engine) *Recognizer {
	if engine == nil {
		engine = score.NewEngine(nil)
	}
	return &Recognizer{
		engine: engine,
		tables: map[score.Sport]Table{
			score.Tennis:     TennisRules(),
			score.Pickleball: PickleballRules(),
		},
	}
}

// WithTable replaces the rule table for sport.
func (r *Recognizer) WithTable(sport score.Sport, table Table) *Recognizer {
	r.tables[sport] = table
	return r
}

// Table returns the rules in use for sport.
func (r *Recognizer) Table(sport score.Sport) Table {
	return r.tables[sport]
}

// Recognize reports whether transcript encodes a score event for s. When
// ok is false the caller keeps s unchanged and waits for more transcript.
func (r *Recognizer) Recognize(transcript string, s score.ScoreState) (Event, bool, error) {
	table, found := r.tables[s.Sport]
	if !found {
		return Event{}, false, fmt.Errorf("%w: %q", score.ErrUnsupportedSport, s.Sport)
	}
	text := strings.ToLower(transcript)
	rule, hit, ok := table.first(text, s)
	if !ok {
		return Event{}, false, nil
	}
	tr, err := rule.Apply(r.engine, s, hit)
	if err != nil {
		return Event{}, false, fmt.Errorf("apply %s rule: %w", rule.Name, err)
	}
	return Event{Rule: rule.Name, Hit: hit, Transition: tr}, true, nil
}
