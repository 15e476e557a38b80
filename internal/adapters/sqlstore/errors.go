package sqlstore

import "errors"

// Sentinel errors for the SQL repository.
var (
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrScoreNotFound     = errors.New("score not found")
)
