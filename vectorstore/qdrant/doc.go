// Package qdrant implements a vectorstore.Backend against a Qdrant server
// over gRPC. Namespaces map to collections, created on first write with
// cosine distance. Row ids are carried in the point payload because Qdrant
// point ids must be numeric or UUID.
package qdrant
