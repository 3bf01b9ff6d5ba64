package index

import (
	"fmt"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/semsearch/core"
	"github.com/poiesic/semsearch/storage"
)

// Index file framing.
const (
	Magic   = "SSIX"
	Version = 1
)

// MarshalBinary encodes the index as: header, dimension, count, then per
// item the ID and its vector.
func (f *Flat) MarshalBinary() ([]byte, error) {
	if len(f.ids) == 0 {
		return nil, ErrEmptyIndex
	}

	size := len(Magic) + 1 + varint.Int.Size(f.dim) + varint.Int.Size(len(f.ids))
	for i, id := range f.ids {
		size += core.IDMUS.Size(id) + core.VectorMUS.Size(f.row(i))
	}

	buf := make([]byte, size)
	n := storage.WriteHeader(buf, Magic, Version)
	n += varint.Int.Marshal(f.dim, buf[n:])
	n += varint.Int.Marshal(len(f.ids), buf[n:])
	for i, id := range f.ids {
		n += core.IDMUS.Marshal(id, buf[n:])
		n += core.VectorMUS.Marshal(f.row(i), buf[n:])
	}
	return buf[:n], nil
}

// UnmarshalBinary restores an index written by MarshalBinary, replacing
// the receiver's contents. Malformed input yields storage.ErrCorruptArtifact.
func (f *Flat) UnmarshalBinary(data []byte) error {
	payload, err := storage.CheckHeader(data, Magic, Version)
	if err != nil {
		return err
	}

	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: index: %s", storage.ErrCorruptArtifact, fmt.Sprintf(format, args...))
	}

	dim, n, err := varint.Int.Unmarshal(payload)
	if err != nil {
		return corrupt("dimension: %v", err)
	}
	count, m, err := varint.Int.Unmarshal(payload[n:])
	n += m
	if err != nil {
		return corrupt("count: %v", err)
	}
	if dim <= 0 || count <= 0 || count > len(payload)-n {
		return corrupt("implausible header dim=%d count=%d", dim, count)
	}

	ids := make([]core.ID, count)
	vectors := make([][]float32, count)
	for i := 0; i < count; i++ {
		ids[i], m, err = core.IDMUS.Unmarshal(payload[n:])
		n += m
		if err != nil {
			return corrupt("id %d: %v", i, err)
		}
		vectors[i], m, err = core.VectorMUS.Unmarshal(payload[n:])
		n += m
		if err != nil {
			return corrupt("vector %d: %v", i, err)
		}
		if len(vectors[i]) != dim {
			return corrupt("vector %d has dimension %d, header says %d", i, len(vectors[i]), dim)
		}
	}
	if n != len(payload) {
		return corrupt("%d trailing bytes", len(payload)-n)
	}

	built, err := Build(ids, vectors)
	if err != nil {
		return corrupt("%v", err)
	}
	*f = *built
	return nil
}
