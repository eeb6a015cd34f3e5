// Package mock provides test double implementations of the AI service
// interfaces.
//
// The mock embedder generates deterministic unit vectors from a text hash,
// so identical texts embed identically and upsert/query round trips behave
// without an external embedding service. Custom behavior can be injected via
// function fields.
package mock
