// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragkit/ai"
	"github.com/poiesic/ragkit/document"
)

// DefaultNamespace is used when no namespace name is supplied.
const DefaultNamespace = "ragkit"

// DefaultTopK is the number of hits returned when a query does not set TopK.
const DefaultTopK = 10

// Namespace binds a storage backend, an embedder and a namespace name into
// the primary read/write surface of the store.
type Namespace struct {
	backend  Backend
	embedder ai.Embedder
	name     string
	logger   *slog.Logger
}

// NamespaceOption configures a Namespace.
type NamespaceOption func(*Namespace)

// WithName sets the namespace name. Defaults to DefaultNamespace.
func WithName(name string) NamespaceOption {
	return func(ns *Namespace) {
		ns.name = name
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) NamespaceOption {
	return func(ns *Namespace) {
		ns.logger = logger
	}
}

// NewNamespace creates a Namespace over a backend and an embedder.
func NewNamespace(backend Backend, embedder ai.Embedder, opts ...NamespaceOption) (*Namespace, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	ns := &Namespace{
		backend:  backend,
		embedder: embedder,
		name:     DefaultNamespace,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(ns)
	}
	ns.logger = ns.logger.With("component", "vectorstore", "namespace", ns.name)
	return ns, nil
}

// Name returns the namespace name.
func (ns *Namespace) Name() string {
	return ns.name
}

// UpsertRequest carries the input of an upsert: either Documents, which get
// embedded and written with their text as the reserved text attribute, or
// pre-built Rows. Attributes are extra attributes applied to every document
// row; they may not use reserved names.
type UpsertRequest struct {
	Documents  []document.Document
	Rows       []Row
	Attributes map[string]string
}

// Upsert inserts or replaces rows in the namespace. Exactly which rows are
// written depends on the request: documents are embedded in one batch and
// carry their text; raw rows are written as given.
func (ns *Namespace) Upsert(ctx context.Context, req UpsertRequest) error {
	if len(req.Documents) == 0 && len(req.Rows) == 0 {
		return ErrNoUpsertInput
	}
	if _, ok := req.Attributes[TextAttribute]; ok {
		return fmt.Errorf("%w: %q", ErrReservedAttribute, TextAttribute)
	}

	rows := req.Rows
	if len(req.Documents) > 0 {
		docRows, err := ns.documentRows(ctx, req.Documents, req.Attributes)
		if err != nil {
			return err
		}
		rows = append(docRows, rows...)
	}

	if err := ns.backend.WriteRows(ctx, ns.name, rows); err != nil {
		return fmt.Errorf("writing %d rows: %w", len(rows), err)
	}
	ns.logger.Debug("upserted rows", "count", len(rows))
	return nil
}

func (ns *Namespace) documentRows(ctx context.Context, docs []document.Document, attrs map[string]string) ([]Row, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	vectors, err := ns.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d documents: %w", len(docs), err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	rows := make([]Row, len(docs))
	for i, doc := range docs {
		rowAttrs := make(map[string]string, len(attrs)+1)
		for k, v := range attrs {
			rowAttrs[k] = v
		}
		rowAttrs[TextAttribute] = doc.Text
		rows[i] = Row{ID: doc.ID, Vector: vectors[i], Attributes: rowAttrs}
	}
	return rows, nil
}

// QueryRequest describes a similarity query. Text and Vector are mutually
// exclusive inputs; Text wins when both are set. TopK defaults to
// DefaultTopK. A non-empty Filter keeps only rows matching every entry.
type QueryRequest struct {
	Text   string
	Vector []float32
	TopK   int
	Filter map[string]string
}

// Query returns the rows nearest the query, highest similarity first.
// Querying a namespace that does not exist yet returns no hits rather than
// an error.
func (ns *Namespace) Query(ctx context.Context, req QueryRequest) ([]ScoredRow, error) {
	vector := req.Vector
	if req.Text != "" {
		var err error
		vector, err = ns.embedder.EmbedText(ctx, req.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding query: %w", err)
		}
	}
	if len(vector) == 0 {
		return nil, ErrNoQueryInput
	}

	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	hits, err := ns.backend.QueryRows(ctx, ns.name, vector, topK, req.Filter)
	if errors.Is(err, ErrNotFound) {
		ns.logger.Debug("query on missing namespace")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// Delete removes rows by id. Missing ids are not an error.
func (ns *Namespace) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no ids", ErrInvalidArgument)
	}
	return ns.backend.DeleteRows(ctx, ns.name, ids)
}

// Reset removes the namespace and everything in it. Resetting a namespace
// that does not exist is a no-op, so Reset is safe to call repeatedly.
func (ns *Namespace) Reset(ctx context.Context) error {
	err := ns.backend.DeleteAll(ctx, ns.name)
	if errors.Is(err, ErrNotFound) {
		ns.logger.Debug("namespace already empty")
		return nil
	}
	return err
}

// Ok reports whether the namespace exists and holds rows. A missing
// namespace is reported as false, not as an error.
func (ns *Namespace) Ok(ctx context.Context) (bool, error) {
	exists, err := ns.backend.NamespaceExists(ctx, ns.name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return exists, err
}

// Close releases the underlying backend.
func (ns *Namespace) Close() error {
	return ns.backend.Close()
}
