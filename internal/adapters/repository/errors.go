package repository

import "errors"

// Sentinel kinds for store errors. These allow errors.Is/As from callers.
var (
	ErrDuplicateGame      = errors.New("game id already exists")
	ErrGameNotFound       = errors.New("game not found")
	ErrAlreadySettled     = errors.New("game already settled")
	ErrNotSettled         = errors.New("game not settled")
	ErrAlreadyClaimed     = errors.New("already claimed")
	ErrUnknownParticipant = errors.New("account is not a participant")
	ErrRecordMismatch     = errors.New("settlement records do not match participants")
	ErrInvalidConfig      = errors.New("invalid store configuration")
	ErrBalanceOverflow    = errors.New("balance overflow")
)
