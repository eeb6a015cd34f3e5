package splitter

import (
	"github.com/poiesic/ragkit/tokenizer"
)

const (
	// DefaultChunkOverlap is the fraction of each chunk shared with its
	// predecessor.
	DefaultChunkOverlap = 0.1

	// DefaultLastChunkThreshold controls tail merging: a final chunk
	// shorter than chunkSize*threshold tokens is appended to the chunk
	// before it.
	DefaultLastChunkThreshold = 0.25
)

// Chunk is a contiguous token window of the source text. Offset is the
// character offset of the window's start in the detokenized text.
type Chunk struct {
	Text   string
	Tokens int
	Offset int
}

// Splitter splits text into overlapping token-bounded windows.
type Splitter struct {
	tok                *tokenizer.Tokenizer
	chunkSize          int
	chunkOverlap       float64
	lastChunkThreshold float64
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkOverlap sets the overlap fraction between consecutive chunks.
// Must be in [0, 1].
func WithChunkOverlap(overlap float64) Option {
	return func(s *Splitter) {
		s.chunkOverlap = overlap
	}
}

// WithLastChunkThreshold sets the tail-merge threshold fraction.
// Must be in [0, 1].
func WithLastChunkThreshold(threshold float64) Option {
	return func(s *Splitter) {
		s.lastChunkThreshold = threshold
	}
}

// New creates a Splitter that emits windows of up to chunkSize tokens.
func New(tok *tokenizer.Tokenizer, chunkSize int, opts ...Option) (*Splitter, error) {
	if tok == nil {
		return nil, ErrTokenizerRequired
	}
	if chunkSize < 1 {
		return nil, ErrChunkSizeTooSmall
	}

	s := &Splitter{
		tok:                tok,
		chunkSize:          chunkSize,
		chunkOverlap:       DefaultChunkOverlap,
		lastChunkThreshold: DefaultLastChunkThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.chunkOverlap < 0 || s.chunkOverlap > 1 {
		return nil, ErrOverlapOutOfRange
	}
	if s.lastChunkThreshold < 0 || s.lastChunkThreshold > 1 {
		return nil, ErrThresholdOutOfRange
	}

	return s, nil
}

// Split splits text into overlapping token windows and returns their
// detokenized texts, in document order.
func (s *Splitter) Split(text string) []string {
	chunks := s.Chunks(text)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// Chunks splits text into overlapping token windows.
//
// Windows advance by a stride of chunkSize minus the overlap token count.
// The stride is clamped to at least 1 so degenerate overlap values cannot
// stall the walk. If the final window holds fewer than
// chunkSize*lastChunkThreshold tokens and is not the only window, its tokens
// are appended to the window before it; the merged pair may overlap more than
// the nominal overlap fraction, which beats emitting a tiny trailing
// fragment.
//
// Output is a pure function of (text, chunkSize, overlap, threshold) for a
// fixed encoding.
func (s *Splitter) Chunks(text string) []Chunk {
	tokens := s.tok.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	stride := s.chunkSize - int(s.chunkOverlap*float64(s.chunkSize))
	if stride < 1 {
		stride = 1
	}

	type window struct {
		tokens []int
		offset int
	}

	var windows []window
	for i := 0; i < len(tokens); i += stride {
		end := i + s.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		windows = append(windows, window{
			tokens: tokens[i:end:end],
			offset: len(s.tok.Detokenize(tokens[:i])),
		})
	}

	// Merge an undersized tail into its predecessor.
	if n := len(windows); n > 1 &&
		float64(len(windows[n-1].tokens)) < float64(s.chunkSize)*s.lastChunkThreshold {
		windows[n-2].tokens = append(windows[n-2].tokens, windows[n-1].tokens...)
		windows = windows[:n-1]
	}

	chunks := make([]Chunk, len(windows))
	for i, w := range windows {
		chunks[i] = Chunk{
			Text:   s.tok.Detokenize(w.tokens),
			Tokens: len(w.tokens),
			Offset: w.offset,
		}
	}
	return chunks
}

// ChunkSize returns the configured token budget per chunk.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}
