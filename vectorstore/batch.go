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

package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/ragkit/concurrency"
	"github.com/poiesic/ragkit/document"
)

const (
	// DefaultBatchSize is the number of documents per upsert batch.
	DefaultBatchSize = 100

	// DefaultBatchConcurrency bounds how many batches are in flight.
	DefaultBatchConcurrency = 8
)

// BatchOption configures a batched upsert.
type BatchOption func(*batchConfig)

type batchConfig struct {
	batchSize     int
	maxConcurrent int
	skipErrors    bool
	attributes    map[string]string
}

// WithBatchSize sets the number of documents per batch. Defaults to 100.
func WithBatchSize(n int) BatchOption {
	return func(c *batchConfig) {
		c.batchSize = n
	}
}

// WithBatchConcurrency bounds the number of in-flight batches. Defaults to 8.
func WithBatchConcurrency(n int) BatchOption {
	return func(c *batchConfig) {
		c.maxConcurrent = n
	}
}

// WithSkipErrors makes the batched upsert attempt every batch instead of
// stopping at the first failure. When any batch fails the final error
// matches ErrPartialBatchFailure and wraps each batch error.
func WithSkipErrors() BatchOption {
	return func(c *batchConfig) {
		c.skipErrors = true
	}
}

// WithBatchAttributes applies extra attributes to every document row.
func WithBatchAttributes(attrs map[string]string) BatchOption {
	return func(c *batchConfig) {
		c.attributes = attrs
	}
}

// UpsertBatched embeds and upserts documents in concurrent fixed-size
// batches. Without WithSkipErrors the first failing batch cancels the rest
// and its error is returned; batches already written stay written.
func (ns *Namespace) UpsertBatched(ctx context.Context, docs []document.Document, opts ...BatchOption) error {
	cfg := &batchConfig{
		batchSize:     DefaultBatchSize,
		maxConcurrent: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.batchSize < 1 {
		return fmt.Errorf("%w: batch size %d", ErrInvalidArgument, cfg.batchSize)
	}

	if len(docs) == 0 {
		return nil
	}

	batches := partition(docs, cfg.batchSize)

	type batchResult struct {
		index int
		err   error
	}

	tasks := make([]concurrency.Task[batchResult], len(batches))
	for i, batch := range batches {
		tasks[i] = func(ctx context.Context) (batchResult, error) {
			err := ns.Upsert(ctx, UpsertRequest{
				Documents:  batch,
				Attributes: cfg.attributes,
			})
			if err != nil {
				if cfg.skipErrors {
					// Report through the result so remaining batches
					// still run.
					return batchResult{index: i, err: err}, nil
				}
				return batchResult{}, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
			}
			ns.logger.Debug("upserted batch",
				"batch", i+1, "batches", len(batches), "documents", len(batch))
			return batchResult{index: i}, nil
		}
	}

	results, err := concurrency.Run(ctx, tasks, cfg.maxConcurrent)
	if err != nil {
		return err
	}

	var failed []error
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, fmt.Errorf("batch %d/%d: %w", r.index+1, len(batches), r.err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w (%d of %d): %w",
			ErrPartialBatchFailure, len(failed), len(batches), errors.Join(failed...))
	}
	return nil
}

// partition splits docs into consecutive slices of at most size elements.
func partition(docs []document.Document, size int) [][]document.Document {
	batches := make([][]document.Document, 0, (len(docs)+size-1)/size)
	for i := 0; i < len(docs); i += size {
		end := i + size
		if end > len(docs) {
			end = len(docs)
		}
		batches = append(batches, docs[i:end])
	}
	return batches
}
