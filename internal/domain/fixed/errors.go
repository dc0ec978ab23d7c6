package fixed

import "errors"

// Sentinel kinds for fixed-point arithmetic.
var (
	ErrOverflow     = errors.New("value exceeds 64 bits")
	ErrDivideByZero = errors.New("division by zero")
)
