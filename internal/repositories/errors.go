package repositories

import "errors"

// Common repository errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrNoTransition = errors.New("no rows matched the expected prior state")
)
