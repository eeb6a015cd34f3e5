package splitter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/ragkit/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCodec treats each whitespace-separated word as one token, keeping tests
// deterministic and offline.
type wordCodec struct {
	words []string
	index map[string]int
}

func newWordCodec() *wordCodec {
	return &wordCodec{index: make(map[string]int)}
}

func (c *wordCodec) Encode(text string) []int {
	fields := strings.Fields(text)
	tokens := make([]int, len(fields))
	for i, f := range fields {
		id, ok := c.index[f]
		if !ok {
			id = len(c.words)
			c.words = append(c.words, f)
			c.index[f] = id
		}
		tokens[i] = id
	}
	return tokens
}

func (c *wordCodec) Decode(tokens []int) string {
	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = c.words[tok]
	}
	return strings.Join(words, " ")
}

func newTestTokenizer(t *testing.T) *tokenizer.Tokenizer {
	t.Helper()
	tok, err := tokenizer.New(tokenizer.WithCodec(newWordCodec()))
	require.NoError(t, err)
	return tok
}

// numberedWords returns "w0 w1 ... w<n-1>", n distinct one-word tokens.
func numberedWords(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "w%d ", i)
	}
	return strings.TrimSpace(b.String())
}

func TestNew_Validation(t *testing.T) {
	tok := newTestTokenizer(t)

	_, err := New(nil, 100)
	assert.ErrorIs(t, err, ErrTokenizerRequired)

	_, err = New(tok, 0)
	assert.ErrorIs(t, err, ErrChunkSizeTooSmall)

	_, err = New(tok, 100, WithChunkOverlap(1.5))
	assert.ErrorIs(t, err, ErrOverlapOutOfRange)

	_, err = New(tok, 100, WithChunkOverlap(-0.1))
	assert.ErrorIs(t, err, ErrOverlapOutOfRange)

	_, err = New(tok, 100, WithLastChunkThreshold(2))
	assert.ErrorIs(t, err, ErrThresholdOutOfRange)
}

func TestSplit_Empty(t *testing.T) {
	tok := newTestTokenizer(t)
	s, err := New(tok, 100)
	require.NoError(t, err)

	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   "))
}

func TestSplit_SingleChunk(t *testing.T) {
	tok := newTestTokenizer(t)
	s, err := New(tok, 100)
	require.NoError(t, err)

	text := numberedWords(10)
	chunks := s.Chunks(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 10, chunks[0].Tokens)
	assert.Equal(t, 0, chunks[0].Offset)
}

func TestSplit_ThousandWords(t *testing.T) {
	// chunkSize=100, overlap=0.1 -> stride=90. Window starts at
	// 0, 90, ..., 990: twelve raw windows, the last holding only the ten
	// trailing tokens, which is under the 25-token merge threshold.
	tok := newTestTokenizer(t)
	s, err := New(tok, 100, WithChunkOverlap(0.1))
	require.NoError(t, err)

	text := strings.Repeat("word ", 1000)
	chunks := s.Chunks(text)
	require.Len(t, chunks, 11)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 100, chunks[i].Tokens, "chunk %d", i)
	}
	// The merged tail carries its predecessor's tokens plus its own.
	assert.Equal(t, 110, chunks[10].Tokens)

	// Coverage: stride * full windows + final window reaches every token.
	total := 0
	for i, c := range chunks {
		if i < len(chunks)-1 {
			total += 90 // stride worth of fresh tokens per window
		} else {
			total += c.Tokens
		}
	}
	assert.GreaterOrEqual(t, total, 1000)
}

func TestSplit_CoverageAndOrder(t *testing.T) {
	tok := newTestTokenizer(t)
	s, err := New(tok, 20, WithChunkOverlap(0.2))
	require.NoError(t, err)

	text := numberedWords(137)
	chunks := s.Chunks(text)
	require.NotEmpty(t, chunks)

	seen := make(map[string]bool)
	for _, c := range chunks {
		for _, w := range strings.Fields(c.Text) {
			seen[w] = true
		}
	}
	for i := 0; i < 137; i++ {
		assert.True(t, seen[fmt.Sprintf("w%d", i)], "token w%d not covered", i)
	}

	assert.True(t, strings.HasPrefix(chunks[0].Text, "w0 "))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1].Text, "w136"))

	// Offsets are non-decreasing in document order.
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].Offset, chunks[i-1].Offset)
	}
}

func TestSplit_TailMergeInvariant(t *testing.T) {
	tok := newTestTokenizer(t)

	// chunkSize=10, no overlap: 22 tokens give windows of 10, 10, 2.
	// The 2-token tail is under 10*0.25 and merges into the second window.
	s, err := New(tok, 10, WithChunkOverlap(0))
	require.NoError(t, err)

	chunks := s.Chunks(numberedWords(22))
	require.Len(t, chunks, 2)
	assert.Equal(t, 10, chunks[0].Tokens)
	assert.Equal(t, 12, chunks[1].Tokens)
}

func TestSplit_NoTailMergeAboveThreshold(t *testing.T) {
	tok := newTestTokenizer(t)

	// A 5-token tail is at least 10*0.25, so it survives on its own.
	s, err := New(tok, 10, WithChunkOverlap(0))
	require.NoError(t, err)

	chunks := s.Chunks(numberedWords(25))
	require.Len(t, chunks, 3)
	assert.Equal(t, 5, chunks[2].Tokens)
}

func TestSplit_DegenerateOverlapTerminates(t *testing.T) {
	tok := newTestTokenizer(t)

	// overlap=1 makes the nominal stride zero; the clamp keeps the walk
	// advancing one token at a time instead of looping forever.
	s, err := New(tok, 5, WithChunkOverlap(1))
	require.NoError(t, err)

	chunks := s.Chunks(numberedWords(10))
	require.NotEmpty(t, chunks)

	seen := make(map[string]bool)
	for _, c := range chunks {
		for _, w := range strings.Fields(c.Text) {
			seen[w] = true
		}
	}
	assert.Len(t, seen, 10)
}

func TestSplit_Deterministic(t *testing.T) {
	tok := newTestTokenizer(t)
	s, err := New(tok, 15, WithChunkOverlap(0.1))
	require.NoError(t, err)

	text := numberedWords(64)
	first := s.Split(text)
	second := s.Split(text)
	assert.Equal(t, first, second)
}
