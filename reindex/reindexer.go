package reindex

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/anirag/core"
	"github.com/poiesic/anirag/ingestion"
	"github.com/poiesic/anirag/storage"
)

// Config controls a rebuild run.
type Config struct {
	// BatchSize is the ingestion batch size.
	// Default is 100.
	BatchSize int

	// MaxConcurrency bounds concurrent ingestion batches.
	// Default is 4.
	MaxConcurrency int

	// MaxRetries is the attempt count for reading the cache.
	// Default is 3.
	MaxRetries int

	// RetryDelay is the base backoff delay between attempts.
	// Default is one second.
	RetryDelay time.Duration

	// ReportInterval reports progress every N records.
	// Default is 100.
	ReportInterval int

	// ProgressWriter receives progress output.
	// Default is os.Stderr.
	ProgressWriter io.Writer
}

func (c *Config) applyDefaults() {
	if c.BatchSize < 1 {
		c.BatchSize = 100
	}
	if c.MaxConcurrency < 1 {
		c.MaxConcurrency = 4
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.ReportInterval < 1 {
		c.ReportInterval = 100
	}
	if c.ProgressWriter == nil {
		c.ProgressWriter = os.Stderr
	}
}

// Reindexer rebuilds the vector store from the metadata cache. The
// cache is the durable record of every external fetch, so a wiped or
// corrupted vector store can be reconstructed without new fetches.
type Reindexer struct {
	cache    storage.MetadataCache
	pipeline *ingestion.Pipeline
	config   Config
	logger   *slog.Logger
}

// NewReindexer creates a reindexer over a cache and ingestion pipeline.
func NewReindexer(cache storage.MetadataCache, pipeline *ingestion.Pipeline, config Config) (*Reindexer, error) {
	if cache == nil {
		return nil, ErrCacheRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}

	config.applyDefaults()
	return &Reindexer{
		cache:    cache,
		pipeline: pipeline,
		config:   config,
		logger:   slog.Default().With("component", "reindexer"),
	}, nil
}

// Run reads every cached record and ingests it into the vector store.
func (r *Reindexer) Run(ctx context.Context) (*ingestion.Report, error) {
	var records []*core.ShowRecord
	err := RetryWithBackoff(ctx, func() error {
		var readErr error
		records, readErr = r.cache.ListAll(ctx)
		return readErr
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	r.logger.Info("reindexing cached records", "records", len(records))

	progress := NewProgressTracker(r.config.ProgressWriter, len(records), r.config.ReportInterval)
	progress.Start()

	tracked := func(yield func(*core.ShowRecord) bool) {
		for _, record := range records {
			if !yield(record) {
				return
			}
			progress.Increment(1)
		}
	}

	report, err := r.pipeline.Ingest(ctx, iter.Seq[*core.ShowRecord](tracked), r.config.BatchSize, r.config.MaxConcurrency)
	if err != nil {
		return nil, err
	}

	progress.Finish()
	r.logger.Info("reindex complete",
		"succeeded", report.TotalSucceeded,
		"failed_batches", len(report.FailedBatches),
		"elapsed", progress.Elapsed().Round(time.Millisecond))
	return report, nil
}
