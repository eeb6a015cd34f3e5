package mock

import "github.com/poiesic/ragkit/ai"

// Provider is a test double for ai.Provider aggregating the mock embedder
// and keyword extractor.
type Provider struct {
	MockEmbedder  *Embedder
	MockExtractor *KeywordExtractor
}

var _ ai.Provider = (*Provider)(nil)

// NewProvider creates a provider with default mock services.
func NewProvider() *Provider {
	return &Provider{
		MockEmbedder:  NewEmbedder(),
		MockExtractor: NewKeywordExtractor(),
	}
}

// Embedder returns the mock embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// KeywordExtractor returns the mock keyword extraction service.
func (p *Provider) KeywordExtractor() ai.KeywordExtractor {
	return p.MockExtractor
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}
