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
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument indicates invalid caller input. The specific
	// argument errors below all match it with errors.Is.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoUpsertInput indicates an upsert with neither documents nor rows.
	ErrNoUpsertInput = fmt.Errorf("%w: either documents or rows must be provided", ErrInvalidArgument)

	// ErrNoQueryInput indicates a query with neither text nor vector.
	ErrNoQueryInput = fmt.Errorf("%w: either text or vector must be provided", ErrInvalidArgument)

	// ErrReservedAttribute indicates a custom attribute collided with a
	// reserved one.
	ErrReservedAttribute = fmt.Errorf("%w: attribute name is reserved", ErrInvalidArgument)

	// ErrNotFound indicates the namespace (or a row in it) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPartialBatchFailure indicates a batched upsert completed with some
	// batches failing.
	ErrPartialBatchFailure = errors.New("some batches failed")

	// ErrBackendRequired indicates a nil backend was supplied.
	ErrBackendRequired = errors.New("backend is required")

	// ErrEmbedderRequired indicates a nil embedder was supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrTruncatedData indicates a stored row could not be decoded fully.
	ErrTruncatedData = errors.New("truncated row data")
)
