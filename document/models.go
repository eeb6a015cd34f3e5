package document

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/poiesic/ragkit/tokenizer"
)

// Metadata carries the recognized document metadata fields plus an open
// side-map for arbitrary extension attributes.
type Metadata struct {
	Title string
	Link  string

	// Extra holds caller-defined attributes beyond the known fields.
	Extra map[string]string
}

// IsZero reports whether no metadata has been set.
func (m Metadata) IsZero() bool {
	return m.Title == "" && m.Link == "" && len(m.Extra) == 0
}

// Clone returns a deep copy so excerpts never share mutable state with
// their parent.
func (m Metadata) Clone() Metadata {
	out := Metadata{Title: m.Title, Link: m.Link}
	if len(m.Extra) > 0 {
		out.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Document is a source of information that is storable and searchable.
// Anything that can be represented as text can be stored as a document:
// web pages, git repos and issues, PDFs, or plain text files.
//
// Documents are immutable after creation; derived excerpts are new Document
// values referencing the source via ParentDocumentID.
type Document struct {
	// ID uniquely identifies the document. Generated with a "doc" prefix
	// when not supplied.
	ID string

	// Text is the UTF-8 content.
	Text string

	// ParentDocumentID references the document this excerpt was derived
	// from. Empty for root documents.
	ParentDocumentID string

	// Embedding is populated by the embedding step, not at construction.
	Embedding []float32

	// Metadata describes the document's origin.
	Metadata Metadata

	// Tokens is the token count of Text, computed at construction when
	// not explicitly provided.
	Tokens int

	// Keywords are extracted keyword strings, most relevant first.
	Keywords []string
}

// Option configures a Document at construction.
type Option func(*Document, *newOptions)

type newOptions struct {
	tok       *tokenizer.Tokenizer
	tokensSet bool
}

// WithID sets an explicit document id.
func WithID(id string) Option {
	return func(d *Document, _ *newOptions) {
		d.ID = id
	}
}

// WithParent sets the parent document id.
func WithParent(parentID string) Option {
	return func(d *Document, _ *newOptions) {
		d.ParentDocumentID = parentID
	}
}

// WithMetadata sets the document metadata.
func WithMetadata(m Metadata) Option {
	return func(d *Document, _ *newOptions) {
		d.Metadata = m
	}
}

// WithKeywords sets the extracted keywords.
func WithKeywords(keywords []string) Option {
	return func(d *Document, _ *newOptions) {
		d.Keywords = keywords
	}
}

// WithTokens overrides the computed token count.
func WithTokens(tokens int) Option {
	return func(d *Document, o *newOptions) {
		d.Tokens = tokens
		o.tokensSet = true
	}
}

// WithTokenizer sets the tokenizer used to count tokens at construction.
// Defaults to the process-wide default tokenizer.
func WithTokenizer(tok *tokenizer.Tokenizer) Option {
	return func(_ *Document, o *newOptions) {
		o.tok = tok
	}
}

var defaultTokenizer = sync.OnceValues(func() (*tokenizer.Tokenizer, error) {
	return tokenizer.New()
})

// New creates a Document from text. The token count is computed from the
// text unless overridden with WithTokens, and an id is generated unless one
// is supplied.
func New(text string, opts ...Option) (Document, error) {
	d := Document{Text: text}
	o := &newOptions{}
	for _, opt := range opts {
		opt(&d, o)
	}

	if d.ID == "" {
		id, err := NewID(IDPrefix)
		if err != nil {
			return Document{}, err
		}
		d.ID = id
	}

	if !o.tokensSet {
		tok := o.tok
		if tok == nil {
			var err error
			tok, err = defaultTokenizer()
			if err != nil {
				return Document{}, err
			}
		}
		d.Tokens = tok.CountTokens(text)
	}

	return d, nil
}

// ContentHash returns a stable hash of the document text. Documents hash by
// content, not by id: two documents with identical text are content-equal
// even with different ids.
func (d Document) ContentHash() uint64 {
	return xxhash.Sum64String(d.Text)
}

// ContentEqual reports whether two documents carry identical text.
func (d Document) ContentEqual(other Document) bool {
	return d.ContentHash() == other.ContentHash()
}
