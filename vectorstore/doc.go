// Package vectorstore provides namespaced vector storage over pluggable
// backends.
//
// A Namespace binds a Backend, an embedder and a namespace name into the
// read/write surface callers use: upsert documents or raw rows, query by
// text or vector, delete, reset. UpsertBatched embeds and writes large
// document sets in bounded-concurrency batches. QueryNamespace and
// MultiQuery turn query hits into prompt-ready text under a token budget.
//
// Backends live in subpackages: badger for embedded local storage, qdrant
// for a remote server.
package vectorstore
