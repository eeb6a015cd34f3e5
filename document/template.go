package document

import (
	"fmt"
	"sort"
	"strings"
)

// TemplateInput carries everything a template can draw on when rendering a
// single excerpt.
type TemplateInput struct {
	// Document is the source document the excerpt was cut from.
	Document Document

	// ExcerptText is the chunk text for this excerpt.
	ExcerptText string

	// Keywords are the keywords extracted from the chunk text, most
	// relevant first. Empty when extraction failed or was disabled.
	Keywords []string

	// Extra holds caller-supplied values for custom templates.
	Extra map[string]any
}

// ExcerptTemplate renders a chunk of a document into the final excerpt text
// that gets embedded and stored.
type ExcerptTemplate interface {
	Render(in TemplateInput) (string, error)
}

// TemplateFunc adapts a function to the ExcerptTemplate interface.
type TemplateFunc func(in TemplateInput) (string, error)

// Render calls f.
func (f TemplateFunc) Render(in TemplateInput) (string, error) {
	return f(in)
}

// DefaultHeader opens every excerpt rendered by the default template. Custom
// templates can check for its absence to confirm they were applied.
const DefaultHeader = "This is an excerpt from a document"

// DefaultTemplate returns the built-in excerpt template. It prefixes the
// chunk text with a short header, the source document's metadata when
// present, and the chunk keywords when any were extracted.
func DefaultTemplate() ExcerptTemplate {
	return TemplateFunc(renderDefault)
}

func renderDefault(in TemplateInput) (string, error) {
	var b strings.Builder
	b.WriteString(DefaultHeader)
	b.WriteString("\n")

	if md := in.Document.Metadata; !md.IsZero() {
		b.WriteString("\n# Document metadata\n")
		if md.Title != "" {
			fmt.Fprintf(&b, "title: %s\n", md.Title)
		}
		if md.Link != "" {
			fmt.Fprintf(&b, "link: %s\n", md.Link)
		}
		for _, k := range sortedKeys(md.Extra) {
			fmt.Fprintf(&b, "%s: %s\n", k, md.Extra[k])
		}
	}

	if len(in.Keywords) > 0 {
		b.WriteString("\n# Document keywords\n")
		b.WriteString(strings.Join(in.Keywords, ", "))
		b.WriteString("\n")
	}

	b.WriteString("\n# Excerpt content: ")
	b.WriteString(in.ExcerptText)
	return b.String(), nil
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
