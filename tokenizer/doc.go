// Package tokenizer adapts tiktoken BPE encodings to a small Codec interface.
//
// The Tokenizer type provides token-exact operations (tokenize, detokenize,
// count, slice) for a fixed model encoding. Unknown model names fall back to
// a known-good encoding rather than failing, so tokenization never hard-fails
// on an unfamiliar model string.
package tokenizer
