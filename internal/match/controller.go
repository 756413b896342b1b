// Package match owns the lifecycle of the active match: start, update
// and end, plus the archived history. A Controller is a plain session
// object; callers serialize access to it.
package match

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/loqalabs/courtcall/internal/score"
)

// ErrNoActiveMatch reports work that needs a match in progress. Update and
// End never return it; they are no-ops without a match.
var ErrNoActiveMatch = errors.New("no active match")

// Patch is a partial ScoreState. Nil fields are left as they are. The
// sport cannot be patched.
type Patch struct {
	TeamAScore   score.Points
	TeamBScore   score.Points
	TeamAName    *string
	TeamBName    *string
	TeamAServing *bool
	GameHistory  score.Ledger
	CurrentGame  *int
	IsMatchPoint *bool
}

// Replace builds a patch carrying every field of s except the sport.
func Replace(s score.ScoreState) Patch {
	return Patch{
		TeamAScore:   s.TeamAScore,
		TeamBScore:   s.TeamBScore,
		TeamAName:    &s.TeamAName,
		TeamBName:    &s.TeamBName,
		TeamAServing: &s.TeamAServing,
		GameHistory:  s.GameHistory,
		CurrentGame:  &s.CurrentGame,
		IsMatchPoint: &s.IsMatchPoint,
	}
}

func (p Patch) apply(s score.ScoreState) score.ScoreState {
	if p.TeamAScore != nil {
		s.TeamAScore = p.TeamAScore
	}
	if p.TeamBScore != nil {
		s.TeamBScore = p.TeamBScore
	}
	if p.TeamAName != nil {
		s.TeamAName = *p.TeamAName
	}
	if p.TeamBName != nil {
		s.TeamBName = *p.TeamBName
	}
	if p.TeamAServing != nil {
		s.TeamAServing = *p.TeamAServing
	}
	if p.GameHistory != nil {
		s.GameHistory = p.GameHistory
	}
	if p.CurrentGame != nil {
		s.CurrentGame = *p.CurrentGame
	}
	if p.IsMatchPoint != nil {
		s.IsMatchPoint = *p.IsMatchPoint
	}
	return s
}

type Option func(*Controller)

// WithClock sets the clock used to date archived matches.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDs sets the match ID source.
func WithIDs(next func() string) Option {
	return func(c *Controller) { c.newID = next }
}

// WithHistory seeds the archive, newest first.
func WithHistory(history []Match) Option {
	return func(c *Controller) { c.history = append([]Match(nil), history...) }
}

// Controller holds at most one active match and the archive of finished
// ones.
type Controller struct {
	active  *score.ScoreState
	history []Match
	now     func() time.Time
	newID   func() string
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens a new match. An active match is ended and archived first.
func (c *Controller) Start(sport score.Sport, teamAName, teamBName string) (score.ScoreState, error) {
	state, err := score.NewState(sport, teamAName, teamBName)
	if err != nil {
		return score.ScoreState{}, err
	}
	c.End()
	c.active = &state
	return state, nil
}

// Resume installs a previously persisted state as the active match
// without archiving anything.
func (c *Controller) Resume(s score.ScoreState) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.active = &s
	return nil
}

// Active returns the active match state.
func (c *Controller) Active() (score.ScoreState, bool) {
	if c.active == nil {
		return score.ScoreState{}, false
	}
	return *c.active, true
}

// Update merges p into the active match. Without an active match it does
// nothing and reports false. A merge that leaves an invalid state, such as
// rally points in a tennis match, is rejected and the match is unchanged.
func (c *Controller) Update(p Patch) (score.ScoreState, bool, error) {
	if c.active == nil {
		return score.ScoreState{}, false, nil
	}
	next := p.apply(*c.active)
	if err := next.Validate(); err != nil {
		return *c.active, true, err
	}
	c.active = &next
	return next, true, nil
}

// End archives the active match and clears it. Without an active match it
// does nothing and reports false.
func (c *Controller) End() (Match, bool) {
	if c.active == nil {
		return Match{}, false
	}
	final := *c.active
	m := Match{
		ID:              c.newID(),
		Sport:           final.Sport,
		Date:            c.now().UTC(),
		TeamAName:       final.TeamAName,
		TeamBName:       final.TeamBName,
		TeamAFinalScore: final.TeamAScore,
		TeamBFinalScore: final.TeamBScore,
		Games:           []score.Ledger{final.GameHistory},
		Winner:          DetermineWinner(final),
	}
	c.history = append([]Match{m}, c.history...)
	c.active = nil
	return m, true
}

// History returns archived matches, newest first.
func (c *Controller) History() []Match {
	return append([]Match(nil), c.history...)
}

func (c *Controller) ClearHistory() {
	c.history = nil
}
