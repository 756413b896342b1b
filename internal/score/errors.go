package score

import "errors"

var (
	ErrUnsupportedSport = errors.New("unsupported sport")
	ErrInvalidSide      = errors.New("invalid side")
	// ErrScoreKind is returned when a state carries points of the wrong
	// kind for its sport, e.g. rally points in a tennis state.
	ErrScoreKind = errors.New("score kind does not match sport")
)
