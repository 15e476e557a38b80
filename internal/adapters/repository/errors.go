package repository

import "errors"

// Sentinel errors for feed lookups.
var (
	ErrNotFound     = errors.New("match not in feed")
	ErrInvalidLimit = errors.New("invalid feed limit")
)
