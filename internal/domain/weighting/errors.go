package weighting

import "errors"

// Sentinel kinds for weighting errors.
var (
	ErrInvalidSplits  = errors.New("weight splits must sum to 100")
	ErrWeightOverflow = errors.New("weight exceeds 64 bits")
)
