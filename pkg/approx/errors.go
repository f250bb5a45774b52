package approx

import "errors"

// ErrNaN is returned when a key contains a NaN and cannot be hashed.
var ErrNaN = errors.New("approx: key contains NaN")
