package loaders

import "errors"

var (
	// ErrNoURLs indicates a web loader was created without any URLs.
	ErrNoURLs = errors.New("no urls to load")

	// ErrInvalidRepo indicates a repository reference is not "owner/repo".
	ErrInvalidRepo = errors.New("repository must be in the format 'owner/repo'")

	// ErrFetch indicates a source could not be fetched.
	ErrFetch = errors.New("fetch failed")
)
