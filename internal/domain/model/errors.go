package model

import "errors"

// ErrMatchNotFound is returned by match lookups for unknown ids.
var ErrMatchNotFound = errors.New("match not found")
