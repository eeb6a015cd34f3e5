package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/ragkit/ai"
)

// KeywordExtractor is a test double for ai.KeywordExtractor.
// It allows custom behavior injection via function fields.
type KeywordExtractor struct {
	// ExtractKeywordsFunc is called by ExtractKeywords if set.
	// If nil, uses default simple word extraction.
	ExtractKeywordsFunc func(ctx context.Context, text string) ([]string, error)

	mu        sync.Mutex
	callCount int
}

var _ ai.KeywordExtractor = (*KeywordExtractor)(nil)

// NewKeywordExtractor creates a mock extractor with default behavior.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

// ExtractKeywords extracts simple mock keywords from text.
// Default behavior: the first five distinct lowercase words.
func (m *KeywordExtractor) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractKeywordsFunc != nil {
		return m.ExtractKeywordsFunc(ctx, text)
	}

	seen := make(map[string]bool)
	keywords := make([]string, 0, 5)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords, nil
}

// CallCount returns the number of times ExtractKeywords was called.
func (m *KeywordExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
