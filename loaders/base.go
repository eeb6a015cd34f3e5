package loaders

import (
	"context"

	"github.com/poiesic/ragkit/concurrency"
	"github.com/poiesic/ragkit/document"
)

// Loader produces documents from some source: web pages, git repos and
// issues, PDFs. Implementations must be safe for concurrent use.
type Loader interface {
	Load(ctx context.Context) ([]document.Document, error)
}

// DefaultLoaderConcurrency bounds how many loaders a MultiLoader runs at
// once.
const DefaultLoaderConcurrency = 5

// MultiLoader loads from multiple loaders with bounded concurrency and
// returns their documents flattened in loader order.
type MultiLoader struct {
	loaders       []Loader
	maxConcurrent int
}

var _ Loader = (*MultiLoader)(nil)

// MultiOption configures a MultiLoader.
type MultiOption func(*MultiLoader)

// WithLoaderConcurrency bounds how many loaders run at once.
func WithLoaderConcurrency(n int) MultiOption {
	return func(m *MultiLoader) {
		m.maxConcurrent = n
	}
}

// NewMultiLoader creates a MultiLoader over the given loaders.
func NewMultiLoader(loaders []Loader, opts ...MultiOption) *MultiLoader {
	m := &MultiLoader{
		loaders:       loaders,
		maxConcurrent: DefaultLoaderConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load runs every loader and concatenates their documents in loader order.
// The first loader error aborts the load.
func (m *MultiLoader) Load(ctx context.Context) ([]document.Document, error) {
	if len(m.loaders) == 0 {
		return nil, nil
	}

	type indexed struct {
		index int
		docs  []document.Document
	}

	tasks := make([]concurrency.Task[indexed], len(m.loaders))
	for i, loader := range m.loaders {
		tasks[i] = func(ctx context.Context) (indexed, error) {
			docs, err := loader.Load(ctx)
			if err != nil {
				return indexed{}, err
			}
			return indexed{index: i, docs: docs}, nil
		}
	}

	results, err := concurrency.Run(ctx, tasks, m.maxConcurrent)
	if err != nil {
		return nil, err
	}

	byIndex := make([][]document.Document, len(m.loaders))
	for _, r := range results {
		byIndex[r.index] = r.docs
	}

	var out []document.Document
	for _, docs := range byIndex {
		out = append(out, docs...)
	}
	return out, nil
}

// excerptDocuments runs documents through the builder when one is set,
// otherwise returns them as loaded.
func excerptDocuments(ctx context.Context, builder *document.ExcerptBuilder, docs []document.Document) ([]document.Document, error) {
	if builder == nil {
		return docs, nil
	}
	var out []document.Document
	for _, doc := range docs {
		excerpts, err := builder.Excerpts(ctx, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, excerpts...)
	}
	return out, nil
}
