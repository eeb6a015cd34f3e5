package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/ragkit/tokenizer"
)

const (
	// DefaultQueryMaxTokens caps the concatenated text a single
	// QueryNamespace call returns.
	DefaultQueryMaxTokens = 500

	// DefaultMultiQueryBudget is the shared token budget MultiQuery splits
	// across its queries.
	DefaultMultiQueryBudget = 800

	// DefaultMultiQueryTopK is the hits retrieved per query in MultiQuery.
	DefaultMultiQueryTopK = 3
)

// QueryOption configures QueryNamespace and MultiQuery.
type QueryOption func(*queryConfig)

type queryConfig struct {
	topK      int
	maxTokens int
	filter    map[string]string
	tok       *tokenizer.Tokenizer
}

// WithTopK sets how many hits each query retrieves.
func WithTopK(n int) QueryOption {
	return func(c *queryConfig) {
		c.topK = n
	}
}

// WithMaxTokens caps the returned text. For MultiQuery the cap is the
// shared budget split evenly across queries.
func WithMaxTokens(n int) QueryOption {
	return func(c *queryConfig) {
		c.maxTokens = n
	}
}

// WithFilter keeps only rows whose attributes match every filter entry.
func WithFilter(filter map[string]string) QueryOption {
	return func(c *queryConfig) {
		c.filter = filter
	}
}

// WithQueryTokenizer sets the tokenizer used to enforce the token cap.
// Defaults to the process-wide default tokenizer.
func WithQueryTokenizer(tok *tokenizer.Tokenizer) QueryOption {
	return func(c *queryConfig) {
		c.tok = tok
	}
}

// QueryNamespace runs a similarity query and returns the hit texts joined
// by newlines, truncated to the token cap. It is the retrieval half of a
// RAG loop: the returned string is ready to drop into a prompt.
func QueryNamespace(ctx context.Context, ns *Namespace, queryText string, opts ...QueryOption) (string, error) {
	cfg, err := newQueryConfig(DefaultTopK, DefaultQueryMaxTokens, opts)
	if err != nil {
		return "", err
	}
	return queryOnce(ctx, ns, queryText, cfg)
}

// MultiQuery runs several queries against the namespace and joins their
// results with blank lines. The token budget is shared: each query gets
// budget/len(queries) tokens, so the combined output stays bounded no
// matter how many queries are asked.
func MultiQuery(ctx context.Context, ns *Namespace, queries []string, opts ...QueryOption) (string, error) {
	if len(queries) == 0 {
		return "", fmt.Errorf("%w: no queries", ErrInvalidArgument)
	}

	cfg, err := newQueryConfig(DefaultMultiQueryTopK, DefaultMultiQueryBudget, opts)
	if err != nil {
		return "", err
	}

	perQuery := *cfg
	perQuery.maxTokens = cfg.maxTokens / len(queries)
	if perQuery.maxTokens < 1 {
		perQuery.maxTokens = 1
	}

	results := make([]string, len(queries))
	for i, query := range queries {
		results[i], err = queryOnce(ctx, ns, query, &perQuery)
		if err != nil {
			return "", fmt.Errorf("query %q: %w", query, err)
		}
	}
	return strings.Join(results, "\n\n"), nil
}

func newQueryConfig(topK, maxTokens int, opts []QueryOption) (*queryConfig, error) {
	cfg := &queryConfig{topK: topK, maxTokens: maxTokens}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tok == nil {
		tok, err := tokenizer.New()
		if err != nil {
			return nil, err
		}
		cfg.tok = tok
	}
	return cfg, nil
}

func queryOnce(ctx context.Context, ns *Namespace, queryText string, cfg *queryConfig) (string, error) {
	hits, err := ns.Query(ctx, QueryRequest{
		Text:   queryText,
		TopK:   cfg.topK,
		Filter: cfg.filter,
	})
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		if text := hit.Text(); text != "" {
			texts = append(texts, text)
		}
	}
	return cfg.tok.SliceTokens(strings.Join(texts, "\n"), cfg.maxTokens), nil
}
