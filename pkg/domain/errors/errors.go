package errors

import "errors"

// requested entity does not exist.
var ErrMissing = errors.New("missing")

// requested entity exists more than expected.
var ErrTooMuch = errors.New("too much")

// requested entity already exists.
var ErrConflict = errors.New("conflict")
