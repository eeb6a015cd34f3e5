package document

import "errors"

var (
	// ErrInvalidID indicates a malformed id or id prefix.
	ErrInvalidID = errors.New("invalid document id")

	// ErrTokenizerRequired indicates a nil tokenizer was supplied.
	ErrTokenizerRequired = errors.New("tokenizer is required")

	// ErrSplitterRequired indicates a nil splitter was supplied.
	ErrSplitterRequired = errors.New("splitter is required")

	// ErrTemplate indicates the excerpt template failed to render.
	ErrTemplate = errors.New("excerpt template failed")
)
