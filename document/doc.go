// Package document defines the document model and the excerpt pipeline.
//
// A Document is any text-representable source of information: a web page, a
// repo file, an issue thread, a PDF page. Documents hash by content, carry a
// prefixed uuid, and know their own token count.
//
// An ExcerptBuilder cuts a document into overlapping token windows and
// renders each window through an ExcerptTemplate into a child document that
// points back at its parent. Keyword extraction per chunk is advisory and
// pluggable.
package document
