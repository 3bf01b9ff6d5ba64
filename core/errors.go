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


package core

import "errors"

// Pipeline error kinds. Callers match them with errors.Is.
var (
	// ErrMissingInputFile indicates a stage could not find the artifact it reads.
	ErrMissingInputFile = errors.New("missing input file")

	// ErrTransientProvider indicates a retryable embedding provider failure.
	ErrTransientProvider = errors.New("transient provider error")

	// ErrFatalProvider indicates a non-retryable embedding provider failure.
	ErrFatalProvider = errors.New("fatal provider error")

	// ErrIntegrityMismatch indicates vectors and records disagree in count or dimension.
	ErrIntegrityMismatch = errors.New("integrity mismatch")

	// ErrIndexLoad indicates the snapshot or index could not be loaded.
	ErrIndexLoad = errors.New("index load error")

	// ErrQueryEmbedding indicates the query string could not be embedded.
	ErrQueryEmbedding = errors.New("query embedding error")

	// ErrInconsistentIndex indicates the index returned a position the snapshot cannot resolve.
	ErrInconsistentIndex = errors.New("inconsistent index")
)

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyContent indicates the text to embed is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrDuplicateID indicates two records share an ID.
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrEmptyCorpus indicates there are no records to embed or index.
	ErrEmptyCorpus = errors.New("corpus has no records")
)
