package ledger

import "errors"

// Sentinel kinds for command log errors.
var (
	ErrClosed          = errors.New("command log closed")
	ErrShutdownTimeout = errors.New("applier shutdown timed out")
)
