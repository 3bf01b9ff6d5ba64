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


package embed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/poiesic/semsearch/ai"
	"github.com/poiesic/semsearch/core"
	"github.com/poiesic/semsearch/storage"
)

// Config holds configuration for an embedding run.
type Config struct {
	// BatchSize is the number of records sent to the provider per call
	BatchSize int

	// MaxAttempts is the maximum number of provider calls per batch
	MaxAttempts int

	// BackoffBase is the wait after the first transient failure; it doubles
	// on every further retry of the same batch
	BackoffBase time.Duration

	// BatchDelay is the minimum spacing between the start of two batches
	BatchDelay time.Duration

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// Normalize scales every vector to unit length before it is stored
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		MaxAttempts:    5,
		BackoffBase:    time.Second,
		BatchDelay:     0,
		ReportInterval: DefaultBatchSize,
	}
}

// Validate checks that every field is in range.
func (c *Config) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrInvalidMaxAttempts)
	case c.BackoffBase < 0:
		return fmt.Errorf("%w: backoff base cannot be negative", ErrInvalidConfig)
	case c.BatchDelay < 0:
		return fmt.Errorf("%w: batch delay cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithCache serves previously embedded texts from cache and stores every
// freshly embedded batch in it.
func WithCache(cache storage.VectorCache) Option {
	return func(o *Orchestrator) error {
		o.cache = cache
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		o.logger = logger.With("component", "embed")
		return nil
	}
}

// WithProgress sets where progress lines are written (typically os.Stderr).
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) error {
		o.progress = w
		return nil
	}
}

// WithSleepFunc replaces the backoff sleep, mainly for tests.
func WithSleepFunc(sleep SleepFunc) Option {
	return func(o *Orchestrator) error {
		if sleep == nil {
			return fmt.Errorf("%w: sleep func is nil", ErrInvalidConfig)
		}
		o.sleep = sleep
		return nil
	}
}

// Orchestrator embeds an ordered record set into a Snapshot.
type Orchestrator struct {
	embedder ai.Embedder
	store    storage.SnapshotStore
	config   *Config
	cache    storage.VectorCache
	progress io.Writer
	sleep    SleepFunc
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator that writes its result to store.
// A nil config means DefaultConfig.
func NewOrchestrator(embedder ai.Embedder, store storage.SnapshotStore, config *Config, opts ...Option) (*Orchestrator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrSnapshotStoreRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		embedder: embedder,
		store:    store,
		config:   config,
		progress: io.Discard,
		sleep:    Sleep,
		logger:   slog.Default().With("component", "embed"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Run embeds records and saves the resulting snapshot.
// On any failure nothing is written and the previous snapshot, if one
// exists, is left untouched.
func (o *Orchestrator) Run(ctx context.Context, records []core.Record) (*core.Snapshot, error) {
	snapshot, err := o.Build(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("embedding snapshot %s not written: %w", o.store.Location(), err)
	}

	if err := o.store.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save embedding snapshot %s: %w", o.store.Location(), err)
	}

	o.logger.Info("embedding snapshot saved",
		"path", o.store.Location(), "records", snapshot.Len(), "dimension", snapshot.Dimension)
	return snapshot, nil
}

// Build embeds records in contiguous batches and returns the snapshot
// without persisting it. Vectors are aligned with records by position.
func (o *Orchestrator) Build(ctx context.Context, records []core.Record) (*core.Snapshot, error) {
	if err := core.ValidateRecords(records); err != nil {
		return nil, err
	}

	total := len(records)
	iterator := NewRecordIterator(records, o.config.BatchSize)
	fmt.Fprintf(o.progress, "Starting embedding of %d records in %d batches (batch size: %d, model: %s)\n",
		total, iterator.NumBatches(), o.config.BatchSize, o.embedder.Model())

	tracker := NewProgressTracker(o.progress, total, o.config.ReportInterval)
	tracker.Start()

	processor := NewBatchProcessor(o.embedder, o.cache, o.config.MaxAttempts, o.config.BackoffBase)
	processor.normalize = o.config.Normalize
	processor.logger = o.logger
	processor.sleep = func(ctx context.Context, d time.Duration) error {
		tracker.Retried()
		return o.sleep(ctx, d)
	}

	var limiter *rate.Limiter
	if o.config.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(o.config.BatchDelay), 1)
	}

	vectors := make([][]float32, 0, total)

	err := iterator.ForEach(ctx, func(start int, batch []core.Record) error {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}

		batchVectors, err := processor.Process(ctx, batch)
		if err != nil {
			return fmt.Errorf("batch at records %d-%d: %w", start, start+len(batch)-1, err)
		}

		vectors = append(vectors, batchVectors...)
		tracker.Add(len(batch))
		return nil
	})
	tracker.Finish()
	if err != nil {
		o.logger.Error("embedding aborted", "embedded", len(vectors), "total", total, "error", err)
		return nil, err
	}

	if len(vectors) != total {
		return nil, fmt.Errorf("%w: %d vectors for %d records", core.ErrIntegrityMismatch, len(vectors), total)
	}

	snapshot := &core.Snapshot{
		Model:     o.embedder.Model(),
		Dimension: processor.Dimension(),
		Records:   slices.Clone(records),
		Vectors:   vectors,
	}
	if err := core.ValidateSnapshot(snapshot); err != nil {
		return nil, err
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(o.progress, "Embedding complete. Processed %d records in %v (%.1f records/sec)\n",
		total, elapsed.Round(time.Millisecond), float64(total)/max(elapsed.Seconds(), 1e-9))

	return snapshot, nil
}
