package domain

import (
	"fmt"
	"strings"
)

// Side is the direction of a quote request. A Buy acquires the base asset
// and is constrained by each venue's quote-currency balance; a Sell disposes
// of the base asset and is constrained by the base balance.
type Side int

const (
	SideBuy Side = iota + 1
	SideSell
)

// String returns the canonical name of the side.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// ParseSide converts a user-supplied side string into a Side. Matching is
// case-insensitive. Returns ErrInvalidSide for anything else.
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, raw)
	}
}
