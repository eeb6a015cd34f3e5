package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCodec is a trivial codec that treats each whitespace-separated word as
// one token. It keeps tests deterministic and offline.
type wordCodec struct {
	words []string
}

func newWordCodec() *wordCodec {
	return &wordCodec{}
}

func (c *wordCodec) Encode(text string) []int {
	fields := strings.Fields(text)
	tokens := make([]int, len(fields))
	for i, f := range fields {
		tokens[i] = c.intern(f)
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

func (c *wordCodec) intern(word string) int {
	for i, w := range c.words {
		if w == word {
			return i
		}
	}
	c.words = append(c.words, word)
	return len(c.words) - 1
}

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := New(WithCodec(newWordCodec()))
	require.NoError(t, err)
	return tok
}

func TestTokenizer_RoundTrip(t *testing.T) {
	tok := newTestTokenizer(t)

	text := "the quick brown fox jumps over the lazy dog"
	tokens := tok.Tokenize(text)
	assert.Len(t, tokens, 9)
	assert.Equal(t, text, tok.Detokenize(tokens))
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := newTestTokenizer(t)

	assert.Equal(t, 0, tok.CountTokens(""))
	assert.Equal(t, 3, tok.CountTokens("one two three"))
}

func TestTokenizer_SliceTokens(t *testing.T) {
	tok := newTestTokenizer(t)
	text := "alpha beta gamma delta epsilon"

	tests := []struct {
		name string
		n    int
		want string
	}{
		{name: "zero", n: 0, want: ""},
		{name: "negative", n: -1, want: ""},
		{name: "partial", n: 2, want: "alpha beta"},
		{name: "exact", n: 5, want: text},
		{name: "beyond", n: 50, want: text},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.SliceTokens(text, tt.n))
		})
	}
}

func TestTokenizer_SliceTokensIsTokenExact(t *testing.T) {
	tok := newTestTokenizer(t)
	text := strings.Repeat("word ", 100)

	total := tok.CountTokens(text)
	for _, n := range []int{0, 1, 7, 50, 100, 250} {
		got := tok.CountTokens(tok.SliceTokens(text, n))
		want := min(n, total)
		if want < 0 {
			want = 0
		}
		assert.Equal(t, want, got, "n=%d", n)
	}
}
