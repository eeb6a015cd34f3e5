package tokenizer

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultModel is the model whose encoding is used when no model is
	// configured. It can be overridden per Tokenizer via WithModel.
	DefaultModel = "gpt-3.5-turbo"

	// fallbackEncoding is used when the requested model is unknown to the
	// tiktoken registry. Tokenization must never hard-fail on an
	// unfamiliar model string.
	fallbackEncoding = "cl100k_base"
)

// Codec converts text to and from a token sequence. Implementations must be
// safe for concurrent use.
type Codec interface {
	// Encode converts text into a sequence of token ids.
	Encode(text string) []int

	// Decode converts a sequence of token ids back into text.
	Decode(tokens []int) string
}

// tiktokenCodec adapts a tiktoken encoding to the Codec interface.
type tiktokenCodec struct {
	enc *tiktoken.Tiktoken
}

var _ Codec = (*tiktokenCodec)(nil)

func (c *tiktokenCodec) Encode(text string) []int {
	return c.enc.Encode(text, nil, nil)
}

func (c *tiktokenCodec) Decode(tokens []int) string {
	return c.enc.Decode(tokens)
}

// Tokenizer provides token-exact text operations for a fixed model encoding.
type Tokenizer struct {
	codec Codec
}

// Option configures a Tokenizer.
type Option func(*options)

type options struct {
	model string
	codec Codec
}

// WithModel selects the model whose encoding is used.
// Unknown models fall back to the cl100k_base encoding.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithCodec injects a custom codec, bypassing tiktoken entirely.
// Intended for tests and for callers that bring their own encoding.
func WithCodec(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// New creates a Tokenizer for the configured model.
// If the model is not recognized by tiktoken, the cl100k_base encoding is
// used instead of failing.
func New(opts ...Option) (*Tokenizer, error) {
	o := &options{model: DefaultModel}
	for _, opt := range opts {
		opt(o)
	}

	if o.codec != nil {
		return &Tokenizer{codec: o.codec}, nil
	}

	enc, err := tiktoken.EncodingForModel(o.model)
	if err != nil {
		slog.Debug("unknown model for tokenizer, using fallback encoding",
			"model", o.model, "fallback", fallbackEncoding)
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}

	return &Tokenizer{codec: &tiktokenCodec{enc: enc}}, nil
}

// Tokenize converts text into a sequence of token ids.
func (t *Tokenizer) Tokenize(text string) []int {
	return t.codec.Encode(text)
}

// Detokenize converts a sequence of token ids back into text.
func (t *Tokenizer) Detokenize(tokens []int) string {
	return t.codec.Decode(tokens)
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.codec.Encode(text))
}

// SliceTokens truncates text to at most n tokens. The truncation is
// token-exact: the result is the detokenization of the first n tokens, not a
// character slice.
func (t *Tokenizer) SliceTokens(text string, n int) string {
	if n <= 0 {
		return ""
	}
	tokens := t.codec.Encode(text)
	if n >= len(tokens) {
		return text
	}
	return t.codec.Decode(tokens[:n])
}
