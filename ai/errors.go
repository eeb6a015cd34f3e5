package ai

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a retry policy is configured
	// with MaxAttempts <= 0.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingMismatch is returned when an embedding backend returns
	// a different number of vectors than texts it was given.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
