package concurrency

import "errors"

var (
	// ErrInvalidConcurrency is returned when maxConcurrent is less than 1.
	ErrInvalidConcurrency = errors.New("maxConcurrent must be at least 1")
)
