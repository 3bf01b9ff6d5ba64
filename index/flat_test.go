package index

import (
	"sync"
	"testing"

	"github.com/poiesic/semsearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T) *Flat {
	t.Helper()
	idx, err := Build(
		[]core.ID{10, 20, 30},
		[][]float32{{1, 0}, {0, 1}, {0.9, 0.1}},
	)
	require.NoError(t, err)
	return idx
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ids     []core.ID
		vectors [][]float32
		wantErr error
	}{
		{
			name:    "empty input",
			wantErr: ErrEmptyIndex,
		},
		{
			name:    "count mismatch",
			ids:     []core.ID{1},
			vectors: [][]float32{{1}, {2}},
			wantErr: core.ErrIntegrityMismatch,
		},
		{
			name:    "zero dimension",
			ids:     []core.ID{1},
			vectors: [][]float32{{}},
			wantErr: core.ErrIntegrityMismatch,
		},
		{
			name:    "ragged dimension",
			ids:     []core.ID{1, 2, 3},
			vectors: [][]float32{{1, 0}, {0, 1}, {1, 1, 1}},
			wantErr: core.ErrIntegrityMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Build(tt.ids, tt.vectors)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, idx)
		})
	}
}

func TestBuild_CopiesInput(t *testing.T) {
	ids := []core.ID{1, 2}
	vectors := [][]float32{{1, 0}, {0, 1}}
	idx, err := Build(ids, vectors)
	require.NoError(t, err)

	vectors[0][0] = 100
	ids[0] = 99

	got, err := idx.Search([]float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, core.ID(1), got[0].Id)
	assert.Zero(t, got[0].Distance, "index must not alias caller vectors")
}

func TestVerify(t *testing.T) {
	idx := testIndex(t)

	assert.NoError(t, idx.Verify([][]float32{{1, 0}, {0, 1}, {0.9, 0.1}}))

	tests := []struct {
		name    string
		vectors [][]float32
	}{
		{"swapped rows", [][]float32{{0, 1}, {1, 0}, {0.9, 0.1}}},
		{"changed value", [][]float32{{1, 0}, {0, 1}, {0.9, 0.2}}},
		{"fewer vectors", [][]float32{{1, 0}, {0, 1}}},
		{"shorter vector", [][]float32{{1, 0}, {0, 1}, {0.9}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, idx.Verify(tt.vectors), core.ErrIntegrityMismatch)
		})
	}
}

func TestSearch_SelfQuery(t *testing.T) {
	vectors := [][]float32{
		{0.1, 0.2, 0.3, 0.4},
		{-1, 0.5, 2, 0},
		{3, 3, 3, 3},
		{0, 0, 0, 0.001},
	}
	ids := []core.ID{1, 2, 3, 4}
	idx, err := Build(ids, vectors)
	require.NoError(t, err)

	for i, vec := range vectors {
		got, err := idx.Search(vec, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, i, got[0].Position)
		assert.Equal(t, ids[i], got[0].Id)
		assert.Equal(t, float32(0), got[0].Distance)
	}
}

func TestSearch_Ranking(t *testing.T) {
	idx := testIndex(t)

	got, err := idx.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, core.ID(10), got[0].Id)
	assert.InDelta(t, 0.0, got[0].Distance, 1e-6)

	assert.Equal(t, 2, got[1].Position)
	assert.Equal(t, core.ID(30), got[1].Id)
	assert.InDelta(t, 0.02, got[1].Distance, 1e-6)
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	idx := testIndex(t)

	got, err := idx.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 2, 1}, positions(got))
	assert.InDelta(t, 2.0, got[2].Distance, 1e-6)
}

func TestSearch_TiesBrokenByPosition(t *testing.T) {
	idx, err := Build(
		[]core.ID{1, 2, 3, 4},
		[][]float32{{0, 1}, {1, 0}, {0, -1}, {-1, 0}},
	)
	require.NoError(t, err)

	// Every vector is at distance 1 from the origin.
	for run := 0; run < 3; run++ {
		got, err := idx.Search([]float32{0, 0}, 4)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3}, positions(got))
	}
}

func TestSearch_Errors(t *testing.T) {
	idx := testIndex(t)

	_, err := idx.Search([]float32{1, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = idx.Search([]float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, core.ErrIntegrityMismatch)

	var empty Flat
	_, err = empty.Search([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestSearch_Concurrent(t *testing.T) {
	idx := testIndex(t)
	want, err := idx.Search([]float32{0.5, 0.5}, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := idx.Search([]float32{0.5, 0.5}, 3)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestSquaredL2(t *testing.T) {
	assert.Equal(t, 0.0, SquaredL2([]float32{1, 2}, []float32{1, 2}))
	assert.Equal(t, 25.0, SquaredL2([]float32{0, 0}, []float32{3, 4}))
	assert.InDelta(t, 0.02, SquaredL2([]float32{1, 0}, []float32{0.9, 0.1}), 1e-6)
}

func TestAccessors(t *testing.T) {
	idx := testIndex(t)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 2, idx.Dim())
	assert.Equal(t, core.ID(20), idx.ID(1))

	ids := idx.IDs()
	ids[0] = 0
	assert.Equal(t, core.ID(10), idx.ID(0), "IDs must return a copy")
}

func positions(ns []Neighbor) []int {
	out := make([]int, len(ns))
	for i, n := range ns {
		out[i] = n.Position
	}
	return out
}
