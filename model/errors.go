package model

import "errors"

// ErrInvalidValue is returned when a value fails validation, be it a
// missing required field, an unparsable identifier or an unknown flag.
var ErrInvalidValue = errors.New("invalid value")
