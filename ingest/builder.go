package ingest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rlch/moviekg"
	"github.com/rlch/moviekg/metrics"
	"go.uber.org/zap"
)

var (
	// ErrCommit is returned when a batch transaction cannot be committed.
	ErrCommit = errors.New("batch commit failed")
	// ErrNoStore is returned when a builder has no store.
	ErrNoStore = errors.New("no graph store configured")
)

// Builder loads datasets into the graph store.
type Builder struct {
	store     moviekg.Transactional
	batchSize int
	filter    string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithBatchSize sets the number of dataset rows per transaction.
func WithBatchSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithFilter sets a row filter expression (see Filter).
func WithFilter(source string) Option {
	return func(b *Builder) {
		b.filter = source
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// New creates a Builder writing to store.
func New(store moviekg.Transactional, opts ...Option) *Builder {
	b := &Builder{
		store:     store,
		batchSize: moviekg.DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build clears the store and loads ds into it batch by batch.
//
// Schema and filter errors are reported before anything is written. Rows
// without a title, rows rejected by the filter and rows the store refuses are
// skipped and listed in the report; the rest of their batch still commits.
// A failed commit aborts the run and returns the partial report.
func (b *Builder) Build(ctx context.Context, ds Dataset) (*Report, error) {
	if b.store == nil {
		return nil, ErrNoStore
	}

	start := time.Now()
	report := &Report{RunID: uuid.NewString(), Rows: len(ds.Rows)}
	log := b.logger.With(zap.String("run", report.RunID))

	err := ValidateColumns(ds.Columns)
	if err != nil {
		return nil, err
	}

	filter, err := CompileFilter(b.filter)
	if err != nil {
		return nil, err
	}

	err = b.reset(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("Store cleared", zap.Int("rows", report.Rows), zap.Int("batchSize", b.batchSize))

	total := len(ds.Rows)

	for batchStart := 0; batchStart < total; batchStart += b.batchSize {
		batchEnd := min(batchStart+b.batchSize, total)

		rows := b.prepare(ds.Rows[batchStart:batchEnd], batchStart, filter, report, log)

		err := b.commitBatch(ctx, rows, report, log)
		if err != nil {
			report.Duration = time.Since(start)

			return report, err
		}

		log.Info("Batch processed", zap.Int("processed", batchEnd), zap.Int("total", total))
	}

	report.Duration = time.Since(start)

	log.Info("Graph build complete",
		zap.Int("written", report.Written),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("batches", report.Batches),
		zap.Duration("elapsed", report.Duration))

	return report, nil
}

// reset clears the store and ensures key constraints exist.
func (b *Builder) reset(ctx context.Context) error {
	_, err := b.store.Execute(ctx, moviekg.CypherClear, nil)
	if err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	for _, stmt := range moviekg.CypherConstraints {
		_, err := b.store.Execute(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	return nil
}

// prepare normalises a slice of records and drops the ones that must be skipped.
func (b *Builder) prepare(records []Record, offset int, filter *Filter, report *Report, log *zap.Logger) []Row {
	rows := make([]Row, 0, len(records))

	for i, rec := range records {
		row := Normalize(rec)
		row.Number = offset + i + 1

		if !row.HasTitle() {
			b.skip(report, row, ReasonMissingTitle, log)

			continue
		}

		ok, err := filter.Match(row)
		if err != nil {
			b.skip(report, row, err.Error(), log)

			continue
		}

		if !ok {
			b.skip(report, row, ReasonFiltered, log)

			continue
		}

		rows = append(rows, row)
	}

	return rows
}

func (b *Builder) skip(report *Report, row Row, reason string, log *zap.Logger) {
	report.skip(row, reason)
	b.metrics.IngestRow(metrics.RowSkipped)

	log.Warn("Row skipped",
		zap.Int("row", row.Number),
		zap.String("title", row.Title),
		zap.String("reason", reason))
}

// commitBatch writes rows in one transaction. A row the store rejects is
// removed and the batch replayed without it, so one bad row never costs the
// others their write.
func (b *Builder) commitBatch(ctx context.Context, rows []Row, report *Report, log *zap.Logger) error {
	rows = slices.Clone(rows)

	for len(rows) > 0 {
		tx, err := b.store.Begin(ctx)
		if err != nil {
			return fmt.Errorf("%w: begin: %w", ErrCommit, err)
		}

		var directed, actedIn int

		failed := -1

		var rowErr error

		for i, row := range rows {
			d, a, err := writeRow(ctx, tx, row)
			if err != nil {
				failed, rowErr = i, err

				break
			}

			directed += d
			actedIn += a
		}

		if failed >= 0 {
			_ = tx.Rollback(ctx)

			if ctx.Err() != nil {
				return ctx.Err()
			}

			b.skip(report, rows[failed], rowErr.Error(), log)
			rows = slices.Delete(rows, failed, failed+1)

			continue
		}

		err = tx.Commit(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCommit, err)
		}

		report.Batches++
		report.Written += len(rows)
		report.Directed += directed
		report.ActedIn += actedIn

		b.metrics.IngestBatch()

		for range rows {
			b.metrics.IngestRow(metrics.RowWritten)
		}

		return nil
	}

	return nil
}

// writeRow upserts the movie and links its people, returning the number of
// DIRECTED and ACTED_IN edges created.
func writeRow(ctx context.Context, tx moviekg.Transaction, row Row) (int, int, error) {
	_, err := tx.Execute(ctx, moviekg.CypherUpsertMovie, row.MovieParams())
	if err != nil {
		return 0, 0, fmt.Errorf("upsert movie: %w", err)
	}

	for i, name := range row.Directors {
		_, err := tx.Execute(ctx, moviekg.CypherLinkDirector, linkParams(row.Title, name, i))
		if err != nil {
			return 0, 0, fmt.Errorf("link director %q: %w", name, err)
		}
	}

	for i, name := range row.Actors {
		_, err := tx.Execute(ctx, moviekg.CypherLinkActor, linkParams(row.Title, name, i))
		if err != nil {
			return 0, 0, fmt.Errorf("link actor %q: %w", name, err)
		}
	}

	return len(row.Directors), len(row.Actors), nil
}

func linkParams(title, name string, order int) map[string]any {
	return map[string]any{
		"title": title,
		"name":  name,
		"order": int64(order),
	}
}
