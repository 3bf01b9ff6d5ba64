package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/semsearch/ai"
	"github.com/poiesic/semsearch/ai/mock"
	"github.com/poiesic/semsearch/core"
	"github.com/poiesic/semsearch/index"
)

func testSnapshot() *core.Snapshot {
	records := []core.Record{
		{OriginalText: "Ìròyìn àkọ́kọ́", DiacriticlessText: "Iroyin akoko", Source: "BBC Yoruba", URL: "https://bbc.example/2021/01/01/a/"},
		{OriginalText: "Ọ̀rọ̀ ajé", DiacriticlessText: "Oro aje", Source: "VOA", URL: "https://voa.example/b/"},
		{OriginalText: "Ìròyìn kejì", DiacriticlessText: "Iroyin keji", Source: "Alaroye", URL: "https://alaroye.example/c/"},
	}
	for i := range records {
		records[i].CleanedText = records[i].OriginalText
		records[i].Id = core.RecordID(records[i].URL, records[i].OriginalText, 0)
	}
	return &core.Snapshot{
		Model:     "mock-embedder",
		Dimension: 2,
		Records:   records,
		Vectors:   [][]float32{{1, 0}, {0, 1}, {0.9, 0.1}},
	}
}

func buildIndex(t *testing.T, snapshot *core.Snapshot) *index.Flat {
	t.Helper()
	idx, err := index.Build(snapshot.IDs(), snapshot.Vectors)
	require.NoError(t, err)
	return idx
}

// fixedEmbedder returns vector for every query.
func fixedEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

func newTestSearcher(t *testing.T, embedder ai.Embedder, opts ...Option) *Searcher {
	t.Helper()
	snapshot := testSnapshot()
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	searcher, err := NewSearcher(snapshot, buildIndex(t, snapshot), embedder, opts...)
	require.NoError(t, err)
	return searcher
}

func TestNewSearcher(t *testing.T) {
	snapshot := testSnapshot()
	idx := buildIndex(t, snapshot)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(snapshot, idx, embedder)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(snapshot, idx, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher.logger)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		_, err := NewSearcher(nil, idx, embedder)
		assert.Equal(t, ErrSnapshotRequired, err)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewSearcher(snapshot, nil, embedder)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(snapshot, idx, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("model mismatch", func(t *testing.T) {
		other := mock.NewMockEmbedder()
		other.ModelName = "another-model"
		_, err := NewSearcher(snapshot, idx, other)
		assert.ErrorIs(t, err, ErrModelMismatch)
	})
}

func TestNewSearcher_InconsistentPair(t *testing.T) {
	embedder := mock.NewMockEmbedder()

	tests := []struct {
		name   string
		mutate func(s *core.Snapshot) *index.Flat
	}{
		{"index shorter than snapshot", func(s *core.Snapshot) *index.Flat {
			idx, _ := index.Build(s.IDs()[:2], s.Vectors[:2])
			return idx
		}},
		{"ids out of order", func(s *core.Snapshot) *index.Flat {
			ids := s.IDs()
			ids[0], ids[1] = ids[1], ids[0]
			idx, _ := index.Build(ids, s.Vectors)
			return idx
		}},
		{"different dimension", func(s *core.Snapshot) *index.Flat {
			idx, _ := index.Build(s.IDs(), [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
			return idx
		}},
		{"index built before re-embedding", func(s *core.Snapshot) *index.Flat {
			idx, _ := index.Build(s.IDs(), s.Vectors)
			s.Vectors[0], s.Vectors[1] = s.Vectors[1], s.Vectors[0]
			return idx
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := testSnapshot()
			idx := tt.mutate(snapshot)
			require.NotNil(t, idx)

			_, err := NewSearcher(snapshot, idx, embedder)
			assert.ErrorIs(t, err, core.ErrIntegrityMismatch)
		})
	}
}

func TestNewSearcher_EmbedderDimension(t *testing.T) {
	snapshot := testSnapshot()
	idx := buildIndex(t, snapshot)

	embedder := mock.NewMockEmbedder()
	embedder.OutputDimension = 256
	_, err := NewSearcher(snapshot, idx, embedder)
	assert.ErrorIs(t, err, core.ErrIntegrityMismatch, "rejected before any query is embedded")
	assert.Zero(t, embedder.CallCount())

	embedder.OutputDimension = 2
	_, err = NewSearcher(snapshot, idx, embedder)
	assert.NoError(t, err)
}

func TestSearch_EndToEnd(t *testing.T) {
	searcher := newTestSearcher(t, fixedEmbedder([]float32{1, 0}))

	results, err := searcher.Search(context.Background(), "iroyin", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 0, results[0].Position)
	assert.InDelta(t, 0.0, results[0].Score, 1e-9)
	assert.Equal(t, "BBC Yoruba", results[0].Record.Source)
	assert.Equal(t, "https://bbc.example/2021/01/01/a/", results[0].Record.URL)

	assert.Equal(t, 2, results[1].Position)
	assert.InDelta(t, 0.02, results[1].Score, 1e-6)
	assert.Equal(t, "Alaroye", results[1].Record.Source)
	assert.Equal(t, "https://alaroye.example/c/", results[1].Record.URL)
}

func TestSearch_KLargerThanCorpus(t *testing.T) {
	searcher := newTestSearcher(t, fixedEmbedder([]float32{0, 1}))

	results, err := searcher.Search(context.Background(), "aje", DefaultK)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Position)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearch_Deterministic(t *testing.T) {
	searcher := newTestSearcher(t, fixedEmbedder([]float32{0.5, 0.5}))
	ctx := context.Background()

	first, err := searcher.Search(ctx, "q", 3)
	require.NoError(t, err)
	for range 5 {
		again, err := searcher.Search(ctx, "q", 3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSearch_InvalidK(t *testing.T) {
	searcher := newTestSearcher(t, fixedEmbedder([]float32{1, 0}))

	_, err := searcher.Search(context.Background(), "q", 0)
	assert.ErrorIs(t, err, index.ErrInvalidK)
}

func TestSearch_QueryEmbeddingFailure(t *testing.T) {
	cause := errors.New("connection refused")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, cause
	}
	searcher := newTestSearcher(t, embedder)

	results, err := searcher.Search(context.Background(), "q", 2)
	assert.Empty(t, results)
	assert.ErrorIs(t, err, core.ErrQueryEmbedding)
	assert.ErrorIs(t, err, cause)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	searcher := newTestSearcher(t, fixedEmbedder([]float32{1, 0, 0}))

	_, err := searcher.Search(context.Background(), "q", 2)
	assert.ErrorIs(t, err, core.ErrIntegrityMismatch)
}

func TestSearch_InconsistentIndex(t *testing.T) {
	searcher := newTestSearcher(t, fixedEmbedder([]float32{1, 0}))
	// Corrupt the snapshot after construction.
	searcher.snapshot.Records[0].Id++

	_, err := searcher.Search(context.Background(), "q", 1)
	assert.ErrorIs(t, err, core.ErrInconsistentIndex)
}

func TestSearch_QueryNormalizer(t *testing.T) {
	embedder := fixedEmbedder([]float32{1, 0})
	searcher := newTestSearcher(t, embedder, WithQueryNormalizer(func(q string) string {
		return "normalized:" + q
	}))

	_, err := searcher.Search(context.Background(), "Ìròyìn", 1)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"normalized:Ìròyìn"}}, embedder.Batches())
}

func TestSearch_ResultsDoNotAliasSnapshot(t *testing.T) {
	searcher := newTestSearcher(t, fixedEmbedder([]float32{1, 0}))

	results, err := searcher.Search(context.Background(), "q", 1)
	require.NoError(t, err)
	results[0].Record.Source = "changed"

	assert.Equal(t, "BBC Yoruba", searcher.snapshot.Records[0].Source)
}

func TestSearchWithMonitor(t *testing.T) {
	searcher := newTestSearcher(t, fixedEmbedder([]float32{1, 0}))
	monitor := &testMonitor{}

	results, err := searcher.SearchWithMonitor(context.Background(), "test query", 2, monitor)
	require.NoError(t, err)

	assert.Equal(t, "test query", monitor.query)
	assert.Equal(t, []float32{1, 0}, monitor.vector)
	require.Len(t, monitor.neighbors, 2)
	assert.Equal(t, 2, monitor.neighbors[1].Position)
	assert.Equal(t, results, monitor.results)
}

// testMonitor is a simple test implementation of SearchMonitor
type testMonitor struct {
	query     string
	vector    []float32
	neighbors []index.Neighbor
	results   []*core.SearchResult
}

func (m *testMonitor) Start(query string) {
	m.query = query
}

func (m *testMonitor) AfterQueryEmbedding(vector []float32) {
	m.vector = vector
}

func (m *testMonitor) AfterIndexSearch(neighbors []index.Neighbor) {
	m.neighbors = neighbors
}

func (m *testMonitor) Finish(results []*core.SearchResult) {
	m.results = results
}

func TestSearchMany(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		switch text {
		case "first":
			return []float32{1, 0}, nil
		case "second":
			return []float32{0, 1}, nil
		case "broken":
			return nil, errors.New("provider down")
		}
		return []float32{0.9, 0.1}, nil
	}
	searcher := newTestSearcher(t, embedder, WithPoolSize(4))

	queries := []string{"first", "second", "third", "broken"}
	results, err := searcher.SearchMany(context.Background(), queries, 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrQueryEmbedding)
	assert.Contains(t, err.Error(), "query 3")

	require.Len(t, results, 4)
	assert.Equal(t, 0, results[0][0].Position)
	assert.Equal(t, 1, results[1][0].Position)
	assert.Equal(t, 2, results[2][0].Position)
	assert.Nil(t, results[3])
}

func TestSearchMany_ManyQueries(t *testing.T) {
	searcher := newTestSearcher(t, fixedEmbedder([]float32{0, 1}))

	queries := make([]string, 50)
	for i := range queries {
		queries[i] = fmt.Sprintf("query %d", i)
	}
	results, err := searcher.SearchMany(context.Background(), queries, 2)
	require.NoError(t, err)
	require.Len(t, results, 50)
	for _, r := range results {
		require.Len(t, r, 2)
		assert.Equal(t, 1, r[0].Position)
	}
}

func TestSearchMany_Canceled(t *testing.T) {
	searcher := newTestSearcher(t, fixedEmbedder([]float32{1, 0}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := searcher.SearchMany(ctx, []string{"a", "b"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
