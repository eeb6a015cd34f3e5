package vectorstore

import "context"

// Backend provides low-level namespaced vector storage. Implementations
// must be safe for concurrent use.
type Backend interface {
	// WriteRows inserts or replaces rows in a namespace, creating the
	// namespace on first write.
	WriteRows(ctx context.Context, namespace string, rows []Row) error

	// QueryRows returns up to topK rows nearest the query vector by cosine
	// similarity, highest first. A non-empty filter keeps only rows whose
	// attributes carry every filter entry exactly. Returns ErrNotFound when
	// the namespace does not exist.
	QueryRows(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]ScoredRow, error)

	// DeleteRows removes rows by id. Missing ids are not an error.
	DeleteRows(ctx context.Context, namespace string, ids []string) error

	// DeleteAll removes the namespace and everything in it. Returns
	// ErrNotFound when the namespace does not exist.
	DeleteAll(ctx context.Context, namespace string) error

	// NamespaceExists reports whether the namespace holds any rows.
	NamespaceExists(ctx context.Context, namespace string) (bool, error)

	// Close releases backend resources.
	Close() error
}
