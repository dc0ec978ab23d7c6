package app

import "errors"

// Sentinel kinds for engine precondition violations. Every one fails the
// whole call with no state change.
var (
	ErrNotStarted           = errors.New("engine not started")
	ErrUnauthorized         = errors.New("caller is not an authorized operator")
	ErrMissingGameID        = errors.New("missing game id")
	ErrZeroValue            = errors.New("total value must be positive")
	ErrMissingAsset         = errors.New("missing asset id")
	ErrParticipantBounds    = errors.New("participant count out of bounds")
	ErrDuplicateParticipant = errors.New("duplicate participant account")
	ErrZeroTotalWeight      = errors.New("total weight is zero; refusing to settle")
	ErrValueExhausted       = errors.New("emission multiplier reduced value to zero")
	ErrInvalidBounds        = errors.New("invalid participant bounds")
	ErrNoOperators          = errors.New("operator registry cannot be emptied")
)
