package index

import (
	"testing"

	"github.com/poiesic/semsearch/core"
	"github.com/poiesic/semsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshal_ReproducesResults(t *testing.T) {
	idx, err := Build(
		[]core.ID{core.IDFromContent("a"), core.IDFromContent("b"), core.IDFromContent("c"), core.IDFromContent("d")},
		[][]float32{{0.1, -0.7, 2}, {1e-8, 3, -3}, {0.1, -0.7, 2.0001}, {5, 5, 5}},
	)
	require.NoError(t, err)

	data, err := idx.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, Magic, string(data[:len(Magic)]))

	var restored Flat
	require.NoError(t, restored.UnmarshalBinary(data))

	assert.Equal(t, idx.Len(), restored.Len())
	assert.Equal(t, idx.Dim(), restored.Dim())
	assert.Equal(t, idx.IDs(), restored.IDs())

	queries := [][]float32{{0.1, -0.7, 2}, {0, 0, 0}, {4, 4, 4}, {-1, 2, -2}}
	for _, q := range queries {
		want, err := idx.Search(q, 4)
		require.NoError(t, err)
		got, err := restored.Search(q, 4)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestUnmarshal_Corrupt(t *testing.T) {
	idx := testIndex(t)
	good, err := idx.MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("SSNP"), good[4:]...)},
		{"header only", good[:len(Magic)+1]},
		{"truncated", good[:len(good)-1]},
		{"trailing bytes", append(append([]byte(nil), good...), 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Flat
			err := f.UnmarshalBinary(tt.data)
			assert.ErrorIs(t, err, storage.ErrCorruptArtifact)
			assert.Zero(t, f.Len(), "failed load must leave the index empty")
		})
	}
}

func TestMarshal_Empty(t *testing.T) {
	var f Flat
	_, err := f.MarshalBinary()
	assert.ErrorIs(t, err, ErrEmptyIndex)
}
