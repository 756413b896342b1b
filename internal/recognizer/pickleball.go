package recognizer

import (
	"regexp"
	"strconv"

	"github.com/loqalabs/courtcall/internal/score"
)

const (
	RuleCall    = "call"
	RuleSideOut = "side-out"
)

// maxCalledPoints caps a called number. Longer digit runs saturate here so
// the call rule still wins over side-out.
const maxCalledPoints = 999

var (
	threeNumbers = regexp.MustCompile(`(\d+)\D+(\d+)\D+(\d+)`)
	sideOut      = regexp.MustCompile(`side[\s-]*out`)
)

// PickleballRules is the pickleball table: a full three-number call, then
// side-out.
//
// A call is read server score first. The scores are trusted as heard; a
// misheard call is expected to be corrected by a later transcript. The
// third number is the server number and is reported in the Hit only.
// Numbers above maxCalledPoints, including ones too long to parse, are
// clamped to it.
func PickleballRules() Table {
	return Table{
		{
			Name: RuleCall,
			Match: func(text string, _ score.ScoreState) (Hit, bool) {
				m := threeNumbers.FindStringSubmatch(text)
				if m == nil {
					return Hit{}, false
				}
				numbers := make([]int, 0, 3)
				for _, digits := range m[1:] {
					numbers = append(numbers, calledPoints(digits))
				}
				return Hit{Numbers: numbers}, true
			},
			Apply: override(func(s score.ScoreState, h Hit) score.ScoreState {
				server, receiver := score.RallyPoints(h.Numbers[0]), score.RallyPoints(h.Numbers[1])
				if s.TeamAServing {
					s.TeamAScore, s.TeamBScore = server, receiver
				} else {
					s.TeamAScore, s.TeamBScore = receiver, server
				}
				return s
			}),
		},
		{
			Name: RuleSideOut,
			Match: func(text string, _ score.ScoreState) (Hit, bool) {
				return Hit{}, sideOut.MatchString(text)
			},
			Apply: override(func(s score.ScoreState, _ Hit) score.ScoreState {
				s.TeamAServing = !s.TeamAServing
				return s
			}),
		},
	}
}

func calledPoints(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil || n > maxCalledPoints {
		return maxCalledPoints
	}
	return n
}
