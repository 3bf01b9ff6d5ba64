package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/poiesic/semsearch/core"
	"github.com/poiesic/semsearch/storage"
)

const filePerm = 0o644

// SnapshotStore keeps the embedding snapshot in a single file.
type SnapshotStore struct {
	path   string
	logger *slog.Logger
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore returns a store for the snapshot file at path.
func NewSnapshotStore(path string) storage.SnapshotStore {
	return newSnapshotStore(path)
}

func newSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{
		path:   path,
		logger: slog.Default().With("component", "snapshot-file"),
	}
}

// SaveSnapshot validates the snapshot and replaces the file atomically.
// An inconsistent snapshot is rejected before anything touches disk.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snapshot *core.Snapshot) error {
	if err := core.ValidateSnapshot(snapshot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data := storage.MarshalSnapshot(snapshot)
	if err := storage.WriteFileAtomic(s.path, data, filePerm); err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.path, err)
	}

	s.logger.Debug("saved snapshot", "path", s.path, "records", snapshot.Len(), "bytes", len(data))
	return nil
}

// LoadSnapshot reads and decodes the snapshot file.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("snapshot %s: %w", s.path, storage.ErrNotFound)
		}
		return nil, err
	}

	snapshot, err := storage.UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.path, err)
	}
	return snapshot, nil
}

// Exists reports whether the snapshot file is present.
func (s *SnapshotStore) Exists() bool {
	return exists(s.path)
}

// Location returns the snapshot file path.
func (s *SnapshotStore) Location() string {
	return s.path
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
