package corpus

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/semsearch/core"
)

// Preparer normalizes raw rows into records on a worker pool.
type Preparer struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Preparer.
type Option func(*Preparer) error

// WithPoolSize sets the worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Preparer) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Preparer) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPreparer creates a preparer. Call Release when done.
func NewPreparer(opts ...Option) (*Preparer, error) {
	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Preparer{pool: pool, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}
	return p, nil
}

// Release releases the worker pool.
func (p *Preparer) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Prepare normalizes rows and returns records in input order.
// Rows whose text is empty after normalization are dropped, since there is
// nothing to embed. IDs are derived from url, original text and the number
// of earlier rows with the same pair, so exact duplicates stay distinct.
func (p *Preparer) Prepare(ctx context.Context, rows []RawRow) ([]core.Record, error) {
	slots := make([]core.Record, len(rows))

	var wg sync.WaitGroup
	for i := range rows {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			slots[i] = normalizeRow(rows[i])
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]core.Record, 0, len(slots))
	occurrences := make(map[string]int)
	dropped := 0
	for i := range slots {
		rec := slots[i]
		if rec.DiacriticlessText == "" {
			dropped++
			p.logger.Debug("dropping empty row", "row", i, "url", rec.URL)
			continue
		}
		key := rec.URL + "\x00" + rec.OriginalText
		rec.Id = core.RecordID(rec.URL, rec.OriginalText, occurrences[key])
		occurrences[key]++
		records = append(records, rec)
	}

	if dropped > 0 {
		p.logger.Warn("dropped rows with no text", "dropped", dropped, "kept", len(records))
	}
	p.logger.Info("prepared corpus", "rows", len(rows), "records", len(records))
	return records, nil
}

func normalizeRow(row RawRow) core.Record {
	cleaned := CleanText(row.Text)
	year, month, day := ExtractDate(row.URL)
	return core.Record{
		OriginalText:      row.Text,
		CleanedText:       cleaned,
		DiacriticlessText: RemoveDiacritics(cleaned),
		Source:            row.Source,
		URL:               row.URL,
		Year:              year,
		Month:             month,
		Day:               day,
	}
}
