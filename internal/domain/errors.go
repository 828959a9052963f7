package domain

import "errors"

var (
	// ErrNoLiquidity is the expected outcome of a planning run that could
	// not fill anything at all. It is not a system error; callers should
	// suggest retrying with a lower amount.
	ErrNoLiquidity = errors.New("no liquidity")

	// ErrInvalidAmount rejects a non-positive target amount before the
	// planning pass starts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidSide rejects an unknown trade side.
	ErrInvalidSide = errors.New("invalid side")

	ErrNotFound = errors.New("not found")
)
