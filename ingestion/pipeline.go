package ingestion

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/anirag/ai"
	"github.com/poiesic/anirag/core"
	"github.com/poiesic/anirag/storage"
)

// Pipeline ingests show records into the vector store in concurrent
// batches. Batch size and concurrency are read per call, so one
// pipeline can serve runs with different settings.
type Pipeline struct {
	embedder ai.Embedder
	store    storage.VectorStore
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(embedder ai.Embedder, store storage.VectorStore, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	p := &Pipeline{
		embedder: embedder,
		store:    store,
		logger:   slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Ingest consumes the record sequence in batches of batchSize and
// upserts them under at most maxConcurrency concurrent workers.
//
// A batch that fails is reported and does not affect its siblings.
// Cancelling the context stops dispatching new batches; batches
// already running finish, and the batch being assembled when the
// cancellation landed is reported failed. The returned report is
// complete even when the run was cut short.
//
// Ingestion is at-least-once, not transactional: a batch that fails
// between its delete and upsert leaves its record IDs absent from the
// store until the same input is ingested again. Failed batches are
// always listed in the report, so callers know to re-run.
func (p *Pipeline) Ingest(ctx context.Context, records iter.Seq[*core.ShowRecord], batchSize, maxConcurrency int) (*Report, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, batchSize)
	}
	if maxConcurrency < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConcurrency, maxConcurrency)
	}

	pool, err := ants.NewPool(maxConcurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report Report
	)

	dispatch := func(batchID int, batch []*core.ShowRecord) {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			p.processBatch(ctx, batchID, batch, &mu, &report)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			report.FailedBatches = append(report.FailedBatches, BatchFailure{BatchID: batchID, Err: submitErr})
			mu.Unlock()
		}
	}

	batchID := 0
	batch := make([]*core.ShowRecord, 0, batchSize)
	cancelled := false

	for record := range records {
		if err := ctx.Err(); err != nil {
			cancelled = true
			break
		}

		batch = append(batch, record)
		if len(batch) == batchSize {
			report.TotalBatches++
			dispatch(batchID, batch)
			batchID++
			batch = make([]*core.ShowRecord, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		report.TotalBatches++
		if cancelled {
			mu.Lock()
			report.FailedBatches = append(report.FailedBatches, BatchFailure{BatchID: batchID, Err: ctx.Err()})
			mu.Unlock()
		} else {
			dispatch(batchID, batch)
		}
	}

	wg.Wait()

	p.logger.Info("ingestion finished",
		"batches", report.TotalBatches,
		"succeeded", report.TotalSucceeded,
		"rejected", len(report.RejectedRecords),
		"failed_batches", len(report.FailedBatches))
	return &report, nil
}

// processBatch validates, embeds, and upserts one batch. Storage
// writes go delete-then-upsert by record ID so re-ingesting a record
// replaces it instead of duplicating it. The two writes are separate
// store calls; if the upsert fails after the delete, the batch's IDs
// stay gone until a re-run, and the batch is reported failed.
func (p *Pipeline) processBatch(ctx context.Context, batchID int, batch []*core.ShowRecord, mu *sync.Mutex, report *Report) {
	valid := make([]*core.ShowRecord, 0, len(batch))
	var rejected []RejectedRecord

	for _, record := range batch {
		record.Normalize()
		if err := core.ValidateShowRecord(record); err != nil {
			rejected = append(rejected, RejectedRecord{RecordID: record.RecordID, Err: err})
			p.logger.Warn("rejected invalid record", "batch", batchID, "record_id", record.RecordID, "err", err)
			continue
		}
		valid = append(valid, record)
	}

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		report.RejectedRecords = append(report.RejectedRecords, rejected...)
		report.FailedBatches = append(report.FailedBatches, BatchFailure{BatchID: batchID, Err: err})
		p.logger.Error("batch failed", "batch", batchID, "err", err)
	}

	if len(valid) == 0 {
		fail(fmt.Errorf("%w: %d records rejected", ErrEmptyAfterValidation, len(rejected)))
		return
	}

	texts := make([]string, len(valid))
	ids := make([]string, len(valid))
	for i, record := range valid {
		texts[i] = record.EmbedText()
		ids[i] = record.RecordID
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		fail(fmt.Errorf("embed batch: %w", err))
		return
	}
	if len(vectors) != len(valid) {
		fail(fmt.Errorf("embed batch: got %d vectors for %d records", len(vectors), len(valid)))
		return
	}

	entries := make([]storage.VectorEntry, len(valid))
	for i, record := range valid {
		entries[i] = storage.VectorEntry{Record: record, Vector: vectors[i]}
	}

	if err := p.store.Delete(ctx, ids...); err != nil {
		fail(fmt.Errorf("delete stale entries: %w", err))
		return
	}
	if err := p.store.Upsert(ctx, entries...); err != nil {
		fail(fmt.Errorf("upsert batch: %w", err))
		return
	}

	mu.Lock()
	report.TotalSucceeded += len(valid)
	report.RejectedRecords = append(report.RejectedRecords, rejected...)
	mu.Unlock()

	p.logger.Debug("batch ingested", "batch", batchID, "records", len(valid))
}
