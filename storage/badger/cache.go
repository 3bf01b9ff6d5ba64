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


package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/semsearch/storage"
)

// VectorCache implements storage.VectorCache for BadgerDB.
type VectorCache struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorCache = (*VectorCache)(nil)

// NewVectorCache opens (or creates) a cache database in dir.
func NewVectorCache(dir string) (storage.VectorCache, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector cache %s: %w", dir, err)
	}
	return newVectorCache(backend), nil
}

func newVectorCache(backend *Backend) *VectorCache {
	return &VectorCache{
		backend: backend,
		logger:  slog.Default().With("component", "vector-cache"),
	}
}

// GetVectors looks up the cached embedding of each text.
// Missing entries are returned as nil.
func (c *VectorCache) GetVectors(ctx context.Context, space storage.EmbeddingSpace, texts []string) ([][]float32, error) {
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	vectors := make([][]float32, len(texts))
	hits := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for i, text := range texts {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makeVectorKey(space, text))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				vec, err := storage.UnmarshalVector(val)
				if err != nil {
					return err
				}
				vectors[i] = vec
				return nil
			})
			if err != nil {
				return err
			}
			hits++
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("cache lookup", "model", space.Model, "dims", space.Dimensions, "requested", len(texts), "hits", hits)
	return vectors, nil
}

// PutVectors stores vectors[i] as the embedding of texts[i] in space.
func (c *VectorCache) PutVectors(ctx context.Context, space storage.EmbeddingSpace, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("%w: %d texts, %d vectors", storage.ErrLengthMismatch, len(texts), len(vectors))
	}
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := c.backend.NewWriteBatch()
	defer wb.Cancel()
	for i, text := range texts {
		if err := wb.Set(makeVectorKey(space, text), storage.MarshalVector(vectors[i])); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}

	c.logger.Debug("cached vectors", "model", space.Model, "dims", space.Dimensions, "count", len(texts))
	return nil
}

// Close closes the underlying database.
func (c *VectorCache) Close() error {
	if c.backend.IsClosed() {
		return nil
	}
	return c.backend.Close()
}
