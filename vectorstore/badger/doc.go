// Package badger implements a vectorstore.Backend on embedded BadgerDB.
//
// Rows are stored one key per row under a namespace prefix and queries are
// full-namespace cosine scans. That keeps the backend dependency-free at
// runtime and plenty fast for local-first corpora; point a remote backend at
// larger collections.
package badger
