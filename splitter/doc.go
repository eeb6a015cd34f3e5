// Package splitter chunks text into overlapping token-bounded windows.
//
// Chunks are measured in tokens, not characters, so each chunk fits a known
// share of an LLM context budget. Consecutive chunks overlap by a configurable
// fraction, and an undersized final chunk is merged into its predecessor
// rather than emitted as a fragment.
package splitter
