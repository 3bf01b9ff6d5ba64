package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/semsearch/ai"
	"github.com/poiesic/semsearch/core"
	"github.com/poiesic/semsearch/index"
)

// DefaultK is the number of results returned when the caller has no preference.
const DefaultK = 5

// Searcher answers queries against one snapshot and the index built from it.
// It only reads both, so a single Searcher serves concurrent queries.
type Searcher struct {
	snapshot       *core.Snapshot
	index          *index.Flat
	embedder       ai.Embedder
	normalizeQuery func(string) string
	poolSize       int
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithQueryNormalizer transforms every query before it is embedded, so it
// matches the normalization applied to the corpus.
func WithQueryNormalizer(fn func(string) string) Option {
	return func(s *Searcher) error {
		s.normalizeQuery = fn
		return nil
	}
}

// WithPoolSize sets how many queries SearchMany runs at once.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		s.poolSize = max(size, 1)
		return nil
	}
}

// NewSearcher creates a new searcher over snapshot and idx.
// The pair is checked up front: same length, the same ID and vector at every
// position and the same dimension. The embedder must report the model the
// snapshot was built with, and a dimension it requests must match too.
func NewSearcher(snapshot *core.Snapshot, idx *index.Flat, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if snapshot == nil {
		return nil, ErrSnapshotRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	if snapshot.Len() != idx.Len() {
		return nil, fmt.Errorf("%w: snapshot has %d records, index has %d vectors",
			core.ErrIntegrityMismatch, snapshot.Len(), idx.Len())
	}
	if snapshot.Dimension != idx.Dim() {
		return nil, fmt.Errorf("%w: snapshot dimension %d, index dimension %d",
			core.ErrIntegrityMismatch, snapshot.Dimension, idx.Dim())
	}
	for pos := range snapshot.Records {
		if snapshot.Records[pos].Id != idx.ID(pos) {
			return nil, fmt.Errorf("%w: record and index disagree at position %d",
				core.ErrIntegrityMismatch, pos)
		}
	}
	if err := idx.Verify(snapshot.Vectors); err != nil {
		return nil, fmt.Errorf("index is stale, rebuild it from the snapshot: %w", err)
	}
	if snapshot.Model != "" && embedder.Model() != snapshot.Model {
		return nil, fmt.Errorf("%w: snapshot built with %q, query embedder is %q",
			ErrModelMismatch, snapshot.Model, embedder.Model())
	}
	if dim := embedder.Dimension(); dim > 0 && dim != snapshot.Dimension {
		return nil, fmt.Errorf("%w: snapshot dimension %d, query embedder requests %d",
			core.ErrIntegrityMismatch, snapshot.Dimension, dim)
	}

	s := &Searcher{
		snapshot: snapshot,
		index:    idx,
		embedder: embedder,
		poolSize: max(runtime.NumCPU()/2, 1),
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to k records closest to query, closest first.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, k, nil)
}

// SearchWithMonitor searches like Search and reports each stage to monitor.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, k int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: %d", index.ErrInvalidK, k)
	}

	monitor.Start(query)

	text := query
	if s.normalizeQuery != nil {
		text = s.normalizeQuery(query)
	}

	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrQueryEmbedding, err)
	}
	if len(vector) != s.index.Dim() {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d",
			core.ErrIntegrityMismatch, len(vector), s.index.Dim())
	}
	monitor.AfterQueryEmbedding(vector)

	neighbors, err := s.index.Search(vector, k)
	if err != nil {
		s.logger.Error("error querying index", "err", err)
		return nil, err
	}
	monitor.AfterIndexSearch(neighbors)

	results := make([]*core.SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Position < 0 || n.Position >= s.snapshot.Len() {
			return nil, fmt.Errorf("%w: index returned position %d for %d records",
				core.ErrInconsistentIndex, n.Position, s.snapshot.Len())
		}
		record := s.snapshot.Records[n.Position]
		if record.Id != n.Id {
			return nil, fmt.Errorf("%w: position %d holds record %d, index has %d",
				core.ErrInconsistentIndex, n.Position, record.Id, n.Id)
		}
		results = append(results, &core.SearchResult{
			Record:   &record,
			Position: n.Position,
			Score:    n.Distance,
		})
	}
	monitor.Finish(results)

	return results, nil
}

// SearchMany runs every query concurrently and returns their results in
// query order. A failed query leaves a nil entry; the returned error joins
// the individual failures.
func (s *Searcher) SearchMany(ctx context.Context, queries []string, k int) ([][]*core.SearchResult, error) {
	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	results := make([][]*core.SearchResult, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			res, err := s.Search(ctx, query, k)
			if err != nil {
				errs[i] = fmt.Errorf("query %d: %w", i, err)
				return
			}
			results[i] = res
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	return results, errors.Join(errs...)
}
