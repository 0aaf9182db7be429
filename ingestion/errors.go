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


package ingestion

import "errors"

var (
	// ErrEmbedderRequired indicates a nil embedder was passed.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrStoreRequired indicates a nil vector store was passed.
	ErrStoreRequired = errors.New("vector store is required")

	// ErrInvalidBatchSize indicates a non-positive batch size.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrInvalidConcurrency indicates a non-positive concurrency bound.
	ErrInvalidConcurrency = errors.New("concurrency must be positive")

	// ErrEmptyAfterValidation indicates a batch whose every record was
	// rejected, leaving nothing to upsert.
	ErrEmptyAfterValidation = errors.New("batch empty after validation")
)
