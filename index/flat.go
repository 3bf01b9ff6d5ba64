package index

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/poiesic/semsearch/core"
)

var (
	// ErrEmptyIndex indicates an index with no vectors.
	ErrEmptyIndex = errors.New("index: no vectors")

	// ErrInvalidK indicates a top-k query with k < 1.
	ErrInvalidK = errors.New("index: k must be at least 1")
)

// Neighbor is one top-k result.
type Neighbor struct {
	Position int     // Position of the vector in build order
	Id       core.ID // ID the vector was built with
	Distance float32 // Squared Euclidean distance to the query
}

// Flat is an exact nearest-neighbor index over squared Euclidean distance.
// It is immutable after Build and safe for concurrent queries.
type Flat struct {
	ids  []core.ID
	data []float32 // row-major, len(ids) * dim
	dim  int
}

// Build copies ids and vectors into a new index. All vectors must share one
// non-zero dimension and there must be exactly one ID per vector.
func Build(ids []core.ID, vectors [][]float32) (*Flat, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("%w: %d ids for %d vectors", core.ErrIntegrityMismatch, len(ids), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, ErrEmptyIndex
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimension vectors", core.ErrIntegrityMismatch)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				core.ErrIntegrityMismatch, i, len(vec), dim)
		}
		data = append(data, vec...)
	}

	return &Flat{
		ids:  slices.Clone(ids),
		data: data,
		dim:  dim,
	}, nil
}

// Len returns the number of indexed vectors.
func (f *Flat) Len() int {
	return len(f.ids)
}

// Dim returns the vector dimension.
func (f *Flat) Dim() int {
	return f.dim
}

// ID returns the ID stored at position.
func (f *Flat) ID(position int) core.ID {
	return f.ids[position]
}

// IDs returns a copy of the stored IDs in position order.
func (f *Flat) IDs() []core.ID {
	return slices.Clone(f.ids)
}

func (f *Flat) row(position int) []float32 {
	return f.data[position*f.dim : (position+1)*f.dim]
}

// Verify checks that the index holds exactly vectors, in order. An index
// built from an older snapshot with the same records fails here.
func (f *Flat) Verify(vectors [][]float32) error {
	if len(vectors) != len(f.ids) {
		return fmt.Errorf("%w: index has %d vectors, expected %d",
			core.ErrIntegrityMismatch, len(f.ids), len(vectors))
	}
	for i, vec := range vectors {
		if !slices.Equal(vec, f.row(i)) {
			return fmt.Errorf("%w: index vector %d differs from the snapshot",
				core.ErrIntegrityMismatch, i)
		}
	}
	return nil
}

// Search returns the k nearest vectors to query, closest first. Equal
// distances are ordered by position. If the index holds fewer than k
// vectors, all of them are returned.
func (f *Flat) Search(query []float32, k int) ([]Neighbor, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if len(f.ids) == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			core.ErrIntegrityMismatch, len(query), f.dim)
	}

	type scored struct {
		pos  int
		dist float64
	}
	scores := make([]scored, len(f.ids))
	for i := range f.ids {
		scores[i] = scored{pos: i, dist: SquaredL2(query, f.row(i))}
	}
	slices.SortFunc(scores, func(a, b scored) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})

	k = min(k, len(scores))
	out := make([]Neighbor, k)
	for i := range out {
		s := scores[i]
		out[i] = Neighbor{Position: s.pos, Id: f.ids[s.pos], Distance: float32(s.dist)}
	}
	return out, nil
}

// SquaredL2 returns the squared Euclidean distance between a and b,
// accumulated in float64. The vectors must have equal length.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
