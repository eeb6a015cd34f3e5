package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in
	// a batch. Batch processing is more efficient than calling EmbedText
	// per string. The returned slice matches the order of the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// KeywordExtractor extracts representative keywords from text.
// Implementations must be thread-safe for concurrent use.
//
// Keyword extraction is advisory: callers treat an extraction failure as an
// empty keyword list rather than an error worth propagating.
type KeywordExtractor interface {
	// ExtractKeywords returns keywords ranked by relevance, most relevant
	// first. Returns an empty slice when nothing stands out.
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and KeywordExtractor
// instances, ensuring they share configuration and resources.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// KeywordExtractor returns the keyword extraction service.
	KeywordExtractor() KeywordExtractor

	// Close releases resources held by the provider and its services.
	Close() error
}
