// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ragkit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/ragkit/ai"
	"github.com/poiesic/ragkit/ai/openai"
	"github.com/poiesic/ragkit/document"
	"github.com/poiesic/ragkit/vectorstore"
	"github.com/poiesic/ragkit/vectorstore/badger"
	"github.com/poiesic/ragkit/vectorstore/qdrant"
)

// Client bundles a vector storage backend and an AI provider into a single
// handle. It is the main entry point of the library: open a client, bind
// namespaces, ingest documents, query them.
type Client struct {
	backend  vectorstore.Backend
	provider ai.Provider
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	aiConfig    *ai.Config
	provider    ai.Provider
	backend     vectorstore.Backend
	storagePath string
	qdrantAddr  string
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) ClientOption {
	return func(o *clientOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider injects a pre-built AI provider, overriding WithAIConfig.
func WithProvider(provider ai.Provider) ClientOption {
	return func(o *clientOptions) {
		o.provider = provider
	}
}

// WithBackend injects a pre-built storage backend, overriding the storage
// path and Qdrant options.
func WithBackend(backend vectorstore.Backend) ClientOption {
	return func(o *clientOptions) {
		o.backend = backend
	}
}

// WithStoragePath stores vectors in an embedded BadgerDB at the given
// directory. This is the default, rooted at DefaultHome().
func WithStoragePath(path string) ClientOption {
	return func(o *clientOptions) {
		o.storagePath = path
	}
}

// WithQdrant stores vectors in a Qdrant server at the given gRPC address,
// e.g. "localhost:6334".
func WithQdrant(addr string) ClientOption {
	return func(o *clientOptions) {
		o.qdrantAddr = addr
	}
}

// DefaultHome returns the default data directory, honoring the RAGKIT_HOME
// environment variable.
func DefaultHome() string {
	if home := os.Getenv("RAGKIT_HOME"); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".ragkit"
	}
	return filepath.Join(userHome, ".ragkit")
}

// NewClient opens a client. Without options it stores vectors in a local
// BadgerDB under DefaultHome() and talks to the OpenAI API configured via
// environment variables.
func NewClient(opts ...ClientOption) (*Client, error) {
	options := &clientOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend := options.backend
	if backend == nil {
		var err error
		switch {
		case options.qdrantAddr != "":
			backend, err = qdrant.Open(options.qdrantAddr)
		case options.storagePath != "":
			backend, err = badger.OpenBackend(options.storagePath)
		default:
			backend, err = badger.OpenBackend(filepath.Join(DefaultHome(), "vectors"))
		}
		if err != nil {
			return nil, fmt.Errorf("opening storage backend: %w", err)
		}
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Client{
		backend:  backend,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// Namespace binds a named namespace over the client's backend and embedder.
func (c *Client) Namespace(name string) (*vectorstore.Namespace, error) {
	return vectorstore.NewNamespace(c.backend, c.provider.Embedder(),
		vectorstore.WithName(name))
}

// NewExcerptBuilder creates an excerpt builder wired to the client's
// keyword extractor.
func (c *Client) NewExcerptBuilder(opts ...document.BuilderOption) (*document.ExcerptBuilder, error) {
	base := []document.BuilderOption{
		document.WithKeywordExtractor(c.provider.KeywordExtractor()),
	}
	return document.NewExcerptBuilder(append(base, opts...)...)
}

// Provider returns the client's AI provider.
func (c *Client) Provider() ai.Provider {
	return c.provider
}

// Close releases the provider and the storage backend.
func (c *Client) Close() error {
	if err := c.provider.Close(); err != nil {
		c.logger.Error("error closing AI provider", "err", err)
	}
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing storage backend", "err", err)
		return err
	}
	return nil
}
