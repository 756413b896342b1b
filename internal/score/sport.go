package score

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Sport selects the rule engine and formatter for a match.
type Sport string

const (
	Tennis     Sport = "tennis"
	Pickleball Sport = "pickleball"
)

// ParseSport accepts a sport name in any case.
func ParseSport(value string) (Sport, error) {
	sport := Sport(strings.ToLower(strings.TrimSpace(value)))
	if !sport.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSport, value)
	}
	return sport, nil
}

func (s Sport) Valid() bool {
	return s == Tennis || s == Pickleball
}

// Side identifies team A or team B. The zero value means no side.
type Side string

const (
	NoSide Side = ""
	SideA  Side = "A"
	SideB  Side = "B"
)

// ParseSide accepts "a"/"b" in any case.
func ParseSide(value string) (Side, error) {
	side := Side(strings.ToUpper(strings.TrimSpace(value)))
	if !side.Valid() {
		return NoSide, fmt.Errorf("%w: %q", ErrInvalidSide, value)
	}
	return side, nil
}

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

func (s Side) Other() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	return NoSide
}

// MarshalJSON encodes NoSide as null.
func (s Side) MarshalJSON() ([]byte, error) {
	if s == NoSide {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

func (s *Side) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = NoSide
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = NoSide
		return nil
	}
	side, err := ParseSide(raw)
	if err != nil {
		return err
	}
	*s = side
	return nil
}
