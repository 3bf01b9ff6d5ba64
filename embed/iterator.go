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


package embed

import (
	"context"

	"github.com/poiesic/semsearch/core"
)

// DefaultBatchSize is the number of records sent to the provider per call.
const DefaultBatchSize = 64

// RecordIterator walks a record slice in contiguous, order-preserving batches.
type RecordIterator struct {
	records   []core.Record
	batchSize int
}

// NewRecordIterator creates a new record iterator.
// batchSize: number of records per batch (DefaultBatchSize if <= 0)
func NewRecordIterator(records []core.Record, batchSize int) *RecordIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &RecordIterator{
		records:   records,
		batchSize: batchSize,
	}
}

// NumBatches returns how many batches ForEach will produce.
func (it *RecordIterator) NumBatches() int {
	return (len(it.records) + it.batchSize - 1) / it.batchSize
}

// ForEach calls fn with each batch and the position of its first record.
// Iteration stops on the first error from fn.
// Context cancellation is checked before every batch.
func (it *RecordIterator) ForEach(ctx context.Context, fn func(start int, batch []core.Record) error) error {
	for start := 0; start < len(it.records); start += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+it.batchSize, len(it.records))
		if err := fn(start, it.records[start:end]); err != nil {
			return err
		}
	}

	return nil
}
