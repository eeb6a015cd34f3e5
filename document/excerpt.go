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

package document

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/ragkit/ai"
	"github.com/poiesic/ragkit/concurrency"
	"github.com/poiesic/ragkit/splitter"
	"github.com/poiesic/ragkit/tokenizer"
)

const (
	// DefaultChunkTokens is the token budget per excerpt.
	DefaultChunkTokens = 300

	// DefaultChunkOverlap is the fraction of each excerpt shared with its
	// predecessor.
	DefaultChunkOverlap = 0.1
)

// ExcerptBuilder turns a document into embedded-ready excerpts: it chunks
// the text into regularly-sized token windows, optionally extracts keywords
// per chunk, and renders each chunk through an excerpt template.
type ExcerptBuilder struct {
	tok           *tokenizer.Tokenizer
	split         *splitter.Splitter
	template      ExcerptTemplate
	extractor     ai.KeywordExtractor
	extra         map[string]any
	maxConcurrent int
	logger        *slog.Logger
}

// BuilderOption configures an ExcerptBuilder.
type BuilderOption func(*builderConfig)

type builderConfig struct {
	tok           *tokenizer.Tokenizer
	chunkTokens   int
	overlap       float64
	template      ExcerptTemplate
	extractor     ai.KeywordExtractor
	extra         map[string]any
	maxConcurrent int
	logger        *slog.Logger
}

// WithChunkTokens sets the token budget per excerpt. Defaults to 300.
func WithChunkTokens(n int) BuilderOption {
	return func(c *builderConfig) {
		c.chunkTokens = n
	}
}

// WithChunkOverlap sets the overlap fraction between consecutive excerpts.
// Defaults to 0.1.
func WithChunkOverlap(overlap float64) BuilderOption {
	return func(c *builderConfig) {
		c.overlap = overlap
	}
}

// WithTemplate sets the excerpt template. Defaults to DefaultTemplate.
func WithTemplate(t ExcerptTemplate) BuilderOption {
	return func(c *builderConfig) {
		c.template = t
	}
}

// WithKeywordExtractor sets the keyword extractor applied to each chunk.
// Extraction is advisory: failures leave the excerpt without keywords but
// never fail the build. Nil disables extraction.
func WithKeywordExtractor(e ai.KeywordExtractor) BuilderOption {
	return func(c *builderConfig) {
		c.extractor = e
	}
}

// WithExtra supplies extra values passed through to the template.
func WithExtra(extra map[string]any) BuilderOption {
	return func(c *builderConfig) {
		c.extra = extra
	}
}

// WithMaxConcurrent bounds how many chunks are processed at once.
// Defaults to concurrency.DefaultMaxConcurrent.
func WithMaxConcurrent(n int) BuilderOption {
	return func(c *builderConfig) {
		c.maxConcurrent = n
	}
}

// WithBuilderTokenizer sets the tokenizer used for chunking and token
// counting. Defaults to the process-wide default tokenizer.
func WithBuilderTokenizer(tok *tokenizer.Tokenizer) BuilderOption {
	return func(c *builderConfig) {
		c.tok = tok
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(c *builderConfig) {
		c.logger = logger
	}
}

// NewExcerptBuilder creates an ExcerptBuilder.
func NewExcerptBuilder(opts ...BuilderOption) (*ExcerptBuilder, error) {
	cfg := &builderConfig{
		chunkTokens:   DefaultChunkTokens,
		overlap:       DefaultChunkOverlap,
		maxConcurrent: concurrency.DefaultMaxConcurrent,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tok := cfg.tok
	if tok == nil {
		var err error
		tok, err = defaultTokenizer()
		if err != nil {
			return nil, err
		}
	}

	split, err := splitter.New(tok, cfg.chunkTokens, splitter.WithChunkOverlap(cfg.overlap))
	if err != nil {
		return nil, err
	}

	template := cfg.template
	if template == nil {
		template = DefaultTemplate()
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ExcerptBuilder{
		tok:           tok,
		split:         split,
		template:      template,
		extractor:     cfg.extractor,
		extra:         cfg.extra,
		maxConcurrent: cfg.maxConcurrent,
		logger:        logger.With("component", "excerpts"),
	}, nil
}

type indexedExcerpt struct {
	index int
	doc   Document
}

// Excerpts chunks the document's text and renders one excerpt document per
// chunk, in document order. Each excerpt carries the source id as its
// ParentDocumentID, a copy of the source metadata, and a token count of its
// rendered text. Template failures abort the build; keyword extraction
// failures do not.
func (b *ExcerptBuilder) Excerpts(ctx context.Context, doc Document) ([]Document, error) {
	chunks := b.split.Split(doc.Text)
	if len(chunks) == 0 {
		return nil, nil
	}

	tasks := make([]concurrency.Task[indexedExcerpt], len(chunks))
	for i, text := range chunks {
		tasks[i] = func(ctx context.Context) (indexedExcerpt, error) {
			excerpt, err := b.buildExcerpt(ctx, doc, text)
			if err != nil {
				return indexedExcerpt{}, err
			}
			return indexedExcerpt{index: i, doc: excerpt}, nil
		}
	}

	results, err := concurrency.Run(ctx, tasks, b.maxConcurrent)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].index < results[j].index
	})

	out := make([]Document, len(results))
	for i, r := range results {
		out[i] = r.doc
	}
	return out, nil
}

func (b *ExcerptBuilder) buildExcerpt(ctx context.Context, doc Document, text string) (Document, error) {
	var keywords []string
	if b.extractor != nil {
		var err error
		keywords, err = b.extractor.ExtractKeywords(ctx, text)
		if err != nil {
			b.logger.Warn("keyword extraction failed, continuing without keywords",
				"document_id", doc.ID, "error", err)
			keywords = nil
		}
	}

	rendered, err := b.template.Render(TemplateInput{
		Document:    doc,
		ExcerptText: text,
		Keywords:    keywords,
		Extra:       b.extra,
	})
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	return New(rendered,
		WithParent(doc.ID),
		WithMetadata(doc.Metadata.Clone()),
		WithKeywords(keywords),
		WithTokenizer(b.tok),
	)
}
