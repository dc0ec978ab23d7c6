package scarcity

import "errors"

// Sentinel kinds for scarcity scoring.
var (
	ErrUnknownSide = errors.New("unknown market side")
)
