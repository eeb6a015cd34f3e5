// Package ai defines the AI capability contracts consumed by the ingestion
// and retrieval pipeline: text embedding and keyword extraction.
//
// Concrete implementations live in subpackages (ai/openai for
// OpenAI-compatible services, ai/mock for tests). The package also carries
// the shared service configuration and the retry policy applied to embedding
// calls.
package ai
