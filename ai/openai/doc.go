// Package openai provides AI services backed by OpenAI-compatible APIs.
//
// This package implements the ai.Provider interface using the langchaingo
// client libraries, so it works against the OpenAI API itself as well as
// local OpenAI-compatible services such as Ollama, LocalAI and vLLM.
package openai
