package splitter

import "errors"

var (
	// ErrTokenizerRequired is returned when a tokenizer is not provided.
	ErrTokenizerRequired = errors.New("tokenizer required")

	// ErrChunkSizeTooSmall is returned when chunkSize is less than 1.
	ErrChunkSizeTooSmall = errors.New("chunk size must be at least 1")

	// ErrOverlapOutOfRange is returned when the overlap fraction is
	// outside [0, 1].
	ErrOverlapOutOfRange = errors.New("chunk overlap must be between 0 and 1")

	// ErrThresholdOutOfRange is returned when the last-chunk threshold is
	// outside [0, 1].
	ErrThresholdOutOfRange = errors.New("last chunk threshold must be between 0 and 1")
)
