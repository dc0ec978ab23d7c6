package emitter

import "errors"

// ErrCreateRejected indicates the engine rejected a game creation request.
var ErrCreateRejected = errors.New("game creation rejected")
