package embed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/semsearch/ai"
	"github.com/poiesic/semsearch/core"
	"github.com/poiesic/semsearch/storage"
)

// BatchProcessor turns one batch of records into vectors, consulting an
// optional cache first and retrying transient provider failures.
type BatchProcessor struct {
	embedder       ai.Embedder
	cache          storage.VectorCache
	maxAttempts    int
	retryBaseDelay time.Duration
	sleep          SleepFunc
	normalize      bool
	dim            int
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
// cache may be nil.
// maxAttempts: maximum number of provider calls per batch
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(embedder ai.Embedder, cache storage.VectorCache, maxAttempts int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		embedder:       embedder,
		cache:          cache,
		maxAttempts:    maxAttempts,
		retryBaseDelay: retryBaseDelay,
		sleep:          Sleep,
		dim:            embedder.Dimension(),
		logger:         slog.Default().With("component", "embed-batch"),
	}
}

// Dimension returns the vector length every batch must have: the embedder's
// requested dimension, else the one observed in the first batch, else 0.
func (bp *BatchProcessor) Dimension() int {
	return bp.dim
}

// Process returns one vector per record, in record order.
// Every batch must agree with the dimension of the first one.
func (bp *BatchProcessor) Process(ctx context.Context, records []core.Record) ([][]float32, error) {
	if len(records) == 0 {
		return nil, nil
	}

	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].DiacriticlessText
	}

	space := storage.EmbeddingSpace{Model: bp.embedder.Model(), Dimensions: bp.embedder.Dimension()}
	vectors := make([][]float32, len(texts))
	if bp.cache != nil {
		cached, err := bp.cache.GetVectors(ctx, space, texts)
		if err != nil {
			bp.logger.Warn("vector cache lookup failed", "error", err)
		} else {
			copy(vectors, cached)
		}
	}

	var missIdx []int
	var missTexts []string
	for i, v := range vectors {
		if v == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}

	if len(missTexts) > 0 {
		fresh, err := bp.embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, i := range missIdx {
			vectors[i] = fresh[j]
		}
		if bp.cache != nil {
			if err := bp.cache.PutVectors(ctx, space, missTexts, fresh); err != nil {
				bp.logger.Warn("vector cache store failed", "error", err)
			}
		}
	}
	if hits := len(texts) - len(missTexts); hits > 0 {
		bp.logger.Debug("vector cache hits", "hits", hits, "misses", len(missTexts))
	}

	dim, err := checkDimensions(vectors, bp.dim)
	if err != nil {
		return nil, err
	}
	bp.dim = dim

	if bp.normalize {
		for i := range vectors {
			vectors[i] = NormalizeVector(vectors[i])
		}
	}
	return vectors, nil
}

func (bp *BatchProcessor) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32
	err := retryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxAttempts, bp.retryBaseDelay, bp.sleep, bp.logger)
	if err != nil {
		return nil, err
	}

	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			core.ErrIntegrityMismatch, len(texts), len(embeddings))
	}
	return embeddings, nil
}
