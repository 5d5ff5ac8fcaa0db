package entities

import "errors"

// ErrInvalidOption is returned when an answer refers to a position that is
// not one of the round's options.
var ErrInvalidOption = errors.New("invalid answer option")
