package vectorstore

// TextAttribute is the reserved attribute holding the row's source text.
// Document upserts populate it; custom attributes may not use it.
const TextAttribute = "text"

// Row is a stored vector with its identity and flat string attributes.
type Row struct {
	ID         string
	Vector     []float32
	Attributes map[string]string
}

// Text returns the reserved text attribute, or "" when absent.
func (r Row) Text() string {
	return r.Attributes[TextAttribute]
}

// ScoredRow is a query hit: a row plus its cosine similarity to the query
// vector, in [-1, 1] with higher meaning closer.
type ScoredRow struct {
	Row
	Score float32
}
