package model

import "errors"

// Sentinel kinds for domain record validation.
var (
	ErrEmptyAccount    = errors.New("empty account id")
	ErrScoreOutOfRange = errors.New("score exceeds 10000 bps")
	ErrUnknownTrack    = errors.New("unknown distribution track")
)
