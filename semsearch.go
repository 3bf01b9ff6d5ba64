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


package semsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/semsearch/ai"
	"github.com/poiesic/semsearch/ai/ollama"
	"github.com/poiesic/semsearch/ai/openai"
	"github.com/poiesic/semsearch/core"
	"github.com/poiesic/semsearch/corpus"
	"github.com/poiesic/semsearch/embed"
	"github.com/poiesic/semsearch/index"
	"github.com/poiesic/semsearch/pipeline"
	"github.com/poiesic/semsearch/search"
	"github.com/poiesic/semsearch/storage"
	"github.com/poiesic/semsearch/storage/badger"
	"github.com/poiesic/semsearch/storage/file"
)

// Paths locates every artifact the pipeline reads or writes.
type Paths struct {
	RawData      string
	PreparedData string
	Snapshot     string
	Index        string
	// CacheDir holds the embedding cache. Empty disables caching.
	CacheDir string
}

// DefaultPaths returns the conventional layout relative to the working
// directory.
func DefaultPaths() Paths {
	return Paths{
		RawData:      filepath.Join("data", "raw", "corpus.csv"),
		PreparedData: filepath.Join("data", "prepared", "prepared_data.csv"),
		Snapshot:     filepath.Join("data", "prepared", "embeddings.snap"),
		Index:        filepath.Join("models", "index.ssix"),
	}
}

// NewProvider creates the embedding provider named by config.Provider.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Provider {
	case ai.ProviderOllama:
		return ollama.NewProvider(config)
	default:
		return openai.NewProvider(config)
	}
}

// Engine wires the corpus, embedding, index and search stages to one set
// of artifact paths and one embedding provider.
type Engine struct {
	paths          Paths
	provider       ai.AIProvider
	embedConfig    *embed.Config
	cache          storage.VectorCache
	snapshots      storage.SnapshotStore
	indexes        storage.IndexStore
	progress       io.Writer
	normalizeQuery bool
	logger         *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig       *ai.Config
	provider       ai.AIProvider
	embedConfig    *embed.Config
	progress       io.Writer
	normalizeQuery bool
	logger         *slog.Logger
}

// WithAIConfig selects the embedding provider to create.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses an existing provider instead of creating one.
// The engine closes it on Close.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithEmbedConfig sets batching and retry behavior for the embed stage.
func WithEmbedConfig(config *embed.Config) EngineOption {
	return func(o *engineOptions) {
		o.embedConfig = config
	}
}

// WithProgress sets where embedding progress is written.
func WithProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// WithQueryNormalization cleans queries and strips their diacritics before
// they are embedded, matching the text the corpus was embedded from.
func WithQueryNormalization(enabled bool) EngineOption {
	return func(o *engineOptions) {
		o.normalizeQuery = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine creates an engine over paths.
func NewEngine(paths Paths, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:    ai.DefaultConfig(),
		embedConfig: embed.DefaultConfig(),
		progress:    io.Discard,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := options.embedConfig.Validate(); err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	var cache storage.VectorCache
	if paths.CacheDir != "" {
		var err error
		cache, err = badger.NewVectorCache(paths.CacheDir)
		if err != nil {
			provider.Close()
			return nil, fmt.Errorf("failed to open embedding cache %s: %w", paths.CacheDir, err)
		}
	}

	return &Engine{
		paths:          paths,
		provider:       provider,
		embedConfig:    options.embedConfig,
		cache:          cache,
		snapshots:      file.NewSnapshotStore(paths.Snapshot),
		indexes:        file.NewIndexStore(paths.Index),
		progress:       options.progress,
		normalizeQuery: options.normalizeQuery,
		logger:         options.logger,
	}, nil
}

// Close releases the provider and the embedding cache.
func (e *Engine) Close() error {
	var errs []error
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.logger.Error("error closing embedding cache", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Paths returns the artifact locations the engine was created with.
func (e *Engine) Paths() Paths {
	return e.paths
}

// Prepare normalizes the raw corpus and writes the prepared CSV.
func (e *Engine) Prepare(ctx context.Context) ([]core.Record, error) {
	rows, err := corpus.LoadRaw(e.paths.RawData)
	if err != nil {
		return nil, err
	}

	preparer, err := corpus.NewPreparer(corpus.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	defer preparer.Release()

	records, err := preparer.Prepare(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no usable rows", core.ErrEmptyCorpus, e.paths.RawData)
	}

	if err := corpus.SavePrepared(e.paths.PreparedData, records); err != nil {
		return nil, err
	}
	e.logger.Info("prepared data saved", "path", e.paths.PreparedData, "records", len(records))
	return records, nil
}

// Embed embeds the prepared corpus and writes the snapshot.
func (e *Engine) Embed(ctx context.Context) (*core.Snapshot, error) {
	records, err := corpus.LoadPrepared(e.paths.PreparedData)
	if err != nil {
		return nil, err
	}

	opts := []embed.Option{
		embed.WithLogger(e.logger),
		embed.WithProgress(e.progress),
	}
	if e.cache != nil {
		opts = append(opts, embed.WithCache(e.cache))
	}
	orchestrator, err := embed.NewOrchestrator(e.provider.Embedder(), e.snapshots, e.embedConfig, opts...)
	if err != nil {
		return nil, err
	}
	return orchestrator.Run(ctx, records)
}

// BuildIndex builds the vector index from the snapshot and writes it.
func (e *Engine) BuildIndex(ctx context.Context) (*index.Flat, error) {
	snapshot, err := e.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	idx, err := index.Build(snapshot.IDs(), snapshot.Vectors)
	if err != nil {
		return nil, err
	}
	if err := e.indexes.SaveIndex(ctx, idx); err != nil {
		return nil, err
	}
	e.logger.Info("index saved", "path", e.indexes.Location(), "vectors", idx.Len(), "dimension", idx.Dim())
	return idx, nil
}

func (e *Engine) loadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	snapshot, err := e.snapshots.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", core.ErrMissingInputFile, e.snapshots.Location())
		}
		return nil, err
	}
	if err := core.ValidateSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", e.snapshots.Location(), err)
	}
	return snapshot, nil
}

// NewSearcher loads the snapshot and index and returns a searcher over them.
// Any load or consistency failure is reported before a query is attempted.
func (e *Engine) NewSearcher(ctx context.Context, opts ...search.Option) (*search.Searcher, error) {
	snapshot, err := e.loadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexLoad, err)
	}

	idx := &index.Flat{}
	if err := e.indexes.LoadIndex(ctx, idx); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = fmt.Errorf("%w: %s", core.ErrMissingInputFile, e.indexes.Location())
		}
		return nil, fmt.Errorf("%w: %w", core.ErrIndexLoad, err)
	}

	base := []search.Option{search.WithLogger(e.logger)}
	if e.normalizeQuery {
		base = append(base, search.WithQueryNormalizer(corpus.NormalizeQuery))
	}
	searcher, err := search.NewSearcher(snapshot, idx, e.provider.Embedder(), append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrIndexLoad, err)
	}
	return searcher, nil
}

// Query answers a single query against the persisted artifacts.
func (e *Engine) Query(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	searcher, err := e.NewSearcher(ctx)
	if err != nil {
		return nil, err
	}
	return searcher.Search(ctx, query, k)
}

// QueryMany answers several queries concurrently against one load of the
// persisted artifacts. Results are in query order; a failed query leaves a
// nil entry and its error is joined into the returned error.
func (e *Engine) QueryMany(ctx context.Context, queries []string, k int) ([][]*core.SearchResult, error) {
	searcher, err := e.NewSearcher(ctx)
	if err != nil {
		return nil, err
	}
	return searcher.SearchMany(ctx, queries, k)
}

// Pipeline returns a runner for prepare, embed and index, followed by a
// query stage when query is not empty. Results are handed to onResults.
// A stage reruns when the artifact it reads is newer than the one it writes.
func (e *Engine) Pipeline(query string, k int, onResults func([]*core.SearchResult) error, opts ...pipeline.Option) (*pipeline.Runner, error) {
	stages := []pipeline.Stage{
		{Name: "prepare", Output: e.paths.PreparedData, Inputs: []string{e.paths.RawData}, Run: func(ctx context.Context) error {
			_, err := e.Prepare(ctx)
			return err
		}},
		{Name: "embed", Output: e.paths.Snapshot, Inputs: []string{e.paths.PreparedData}, Run: func(ctx context.Context) error {
			_, err := e.Embed(ctx)
			return err
		}},
		{Name: "index", Output: e.paths.Index, Inputs: []string{e.paths.Snapshot}, Run: func(ctx context.Context) error {
			_, err := e.BuildIndex(ctx)
			return err
		}},
	}
	if query != "" {
		stages = append(stages, pipeline.Stage{Name: "query", Run: func(ctx context.Context) error {
			results, err := e.Query(ctx, query, k)
			if err != nil {
				return err
			}
			if onResults != nil {
				return onResults(results)
			}
			return nil
		}})
	}
	return pipeline.NewRunner(stages, append([]pipeline.Option{pipeline.WithLogger(e.logger)}, opts...)...)
}
