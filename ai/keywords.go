package ai

import (
	"context"
	"sort"
	"strings"
)

// Stop words filtered out before keyword ranking.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "we": true, "can": true, "will": true,
	"if": true, "they": true, "their": true, "its": true, "has": true,
}

// StatisticalExtractor ranks keywords by term frequency after stop-word and
// punctuation filtering. It needs no external service and is the default
// extractor for excerpt construction.
type StatisticalExtractor struct {
	maxKeywords int
}

var _ KeywordExtractor = (*StatisticalExtractor)(nil)

// NewStatisticalExtractor creates an extractor returning up to maxKeywords
// keywords per text. maxKeywords values below 1 fall back to 10.
func NewStatisticalExtractor(maxKeywords int) *StatisticalExtractor {
	if maxKeywords < 1 {
		maxKeywords = 10
	}
	return &StatisticalExtractor{maxKeywords: maxKeywords}
}

// ExtractKeywords returns the most frequent non-stop-word terms in text,
// most frequent first. Ties break toward earlier first occurrence so output
// is deterministic.
func (e *StatisticalExtractor) ExtractKeywords(_ context.Context, text string) ([]string, error) {
	type term struct {
		word  string
		count int
		first int
	}

	terms := make(map[string]*term)
	for i, word := range strings.Fields(text) {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}#*`<>"))
		if cleaned == "" || len(cleaned) < 2 || stopWords[cleaned] {
			continue
		}
		if t, ok := terms[cleaned]; ok {
			t.count++
		} else {
			terms[cleaned] = &term{word: cleaned, count: 1, first: i}
		}
	}

	ranked := make([]*term, 0, len(terms))
	for _, t := range terms {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	if len(ranked) > e.maxKeywords {
		ranked = ranked[:e.maxKeywords]
	}

	keywords := make([]string, len(ranked))
	for i, t := range ranked {
		keywords[i] = t.word
	}
	return keywords, nil
}
