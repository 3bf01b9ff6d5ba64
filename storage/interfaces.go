package storage

import (
	"context"
	"encoding"

	"github.com/poiesic/semsearch/core"
)

// SnapshotStore persists the embedding snapshot.
// Implementations must be thread-safe and support concurrent access.
type SnapshotStore interface {
	// SaveSnapshot replaces the stored snapshot atomically.
	// Readers never observe a partially written snapshot.
	SaveSnapshot(ctx context.Context, snapshot *core.Snapshot) error

	// LoadSnapshot reads the stored snapshot.
	// Returns ErrNotFound if nothing has been saved and ErrCorruptArtifact
	// if the stored bytes cannot be decoded.
	LoadSnapshot(ctx context.Context) (*core.Snapshot, error)

	// Exists reports whether a snapshot has been saved.
	Exists() bool

	// Location describes where the snapshot lives, for error messages.
	Location() string
}

// IndexStore persists a serialized vector index.
type IndexStore interface {
	// SaveIndex replaces the stored index atomically.
	SaveIndex(ctx context.Context, index encoding.BinaryMarshaler) error

	// LoadIndex decodes the stored index into index.
	// Returns ErrNotFound if nothing has been saved.
	LoadIndex(ctx context.Context, index encoding.BinaryUnmarshaler) error

	// Exists reports whether an index has been saved.
	Exists() bool

	// Location describes where the index lives, for error messages.
	Location() string
}

// EmbeddingSpace names the vectors one embedder configuration produces.
// Vectors from different spaces are never interchangeable.
type EmbeddingSpace struct {
	Model      string
	Dimensions int // Requested output dimension, 0 for the model default
}

// VectorCache stores embeddings keyed by embedding space and embedded text,
// so a run that aborted part way can skip the batches it already paid for.
type VectorCache interface {
	// GetVectors returns one entry per text, nil where the cache has no vector.
	GetVectors(ctx context.Context, space EmbeddingSpace, texts []string) ([][]float32, error)

	// PutVectors stores vectors[i] as the embedding of texts[i].
	// Returns ErrLengthMismatch if the slices differ in length.
	PutVectors(ctx context.Context, space EmbeddingSpace, texts []string, vectors [][]float32) error

	// Close releases resources held by the cache.
	Close() error
}
