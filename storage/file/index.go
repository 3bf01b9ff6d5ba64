package file

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/poiesic/semsearch/storage"
)

// IndexStore keeps a serialized vector index in a single file.
type IndexStore struct {
	path   string
	logger *slog.Logger
}

var _ storage.IndexStore = (*IndexStore)(nil)

// NewIndexStore returns a store for the index file at path.
func NewIndexStore(path string) storage.IndexStore {
	return &IndexStore{
		path:   path,
		logger: slog.Default().With("component", "index-file"),
	}
}

// SaveIndex serializes index and replaces the file atomically.
func (s *IndexStore) SaveIndex(ctx context.Context, index encoding.BinaryMarshaler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := index.MarshalBinary()
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if err := storage.WriteFileAtomic(s.path, data, filePerm); err != nil {
		return fmt.Errorf("write index %s: %w", s.path, err)
	}

	s.logger.Debug("saved index", "path", s.path, "bytes", len(data))
	return nil
}

// LoadIndex reads the index file and decodes it into index.
func (s *IndexStore) LoadIndex(ctx context.Context, index encoding.BinaryUnmarshaler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("index %s: %w", s.path, storage.ErrNotFound)
		}
		return err
	}

	if err := index.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("index %s: %w", s.path, err)
	}
	return nil
}

// Exists reports whether the index file is present.
func (s *IndexStore) Exists() bool {
	return exists(s.path)
}

// Location returns the index file path.
func (s *IndexStore) Location() string {
	return s.path
}
