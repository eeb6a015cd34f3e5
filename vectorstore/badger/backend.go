package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/poiesic/ragkit/vectorstore"
)

// Backend stores vector rows in a BadgerDB instance, one key per row.
// Queries scan the namespace and rank by cosine similarity, which is fine
// for the local-first collection sizes this backend targets.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ vectorstore.Backend = (*Backend)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist. An empty path opens an
// in-memory database.
func OpenBackend(filePath string) (*Backend, error) {
	var opts badger.Options

	if filePath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// WriteRows inserts or replaces rows in a namespace.
func (b *Backend) WriteRows(ctx context.Context, namespace string, rows []vectorstore.Row) error {
	return b.WithTx(func(tx *badger.Txn) error {
		for _, row := range rows {
			key := makeRowKey(namespace, row.ID)
			if err := tx.Set(key, vectorstore.MarshalRow(row)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// QueryRows scans the namespace and returns up to topK rows ranked by
// cosine similarity to the query vector, highest first.
func (b *Backend) QueryRows(ctx context.Context, namespace string, vector []float32, topK int, filter map[string]string) ([]vectorstore.ScoredRow, error) {
	var results []vectorstore.ScoredRow
	found := false

	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeNamespacePrefix(namespace)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			found = true

			var row vectorstore.Row
			err := iter.Item().Value(func(val []byte) error {
				var err error
				row, err = vectorstore.UnmarshalRow(val)
				return err
			})
			if err != nil {
				return err
			}

			if !matchesFilter(row, filter) {
				continue
			}
			if len(row.Vector) == 0 {
				continue
			}

			results = append(results, vectorstore.ScoredRow{
				Row:   row,
				Score: cosineSimilarity(vector, row.Vector),
			})
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, vectorstore.ErrNotFound
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b vectorstore.ScoredRow) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteRows removes rows by id. Missing ids are ignored.
func (b *Backend) DeleteRows(ctx context.Context, namespace string, ids []string) error {
	return b.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeRowKey(namespace, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteAll removes every row in the namespace. Returns ErrNotFound when
// the namespace holds no rows.
func (b *Backend) DeleteAll(ctx context.Context, namespace string) error {
	var keys [][]byte

	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeNamespacePrefix(namespace)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		return vectorstore.ErrNotFound
	}

	err = b.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	b.logger.Debug("deleted namespace", "namespace", namespace, "rows", len(keys))
	return nil
}

// NamespaceExists reports whether the namespace holds any rows.
func (b *Backend) NamespaceExists(ctx context.Context, namespace string) (bool, error) {
	exists := false
	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeNamespacePrefix(namespace)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		iter.Rewind()
		exists = iter.Valid()
		return nil
	}, false)
	return exists, err
}

func matchesFilter(row vectorstore.Row, filter map[string]string) bool {
	for k, v := range filter {
		if row.Attributes[k] != v {
			return false
		}
	}
	return true
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero-magnitude inputs score zero.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
