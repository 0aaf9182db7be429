package ingestion

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/anirag/ai/mock"
	"github.com/poiesic/anirag/core"
	"github.com/poiesic/anirag/storage"
)

// memStore is a map-backed vector store that can fail on demand.
type memStore struct {
	mu      sync.Mutex
	entries map[string]storage.VectorEntry

	// failUpsertFor makes Upsert fail for batches containing the given
	// record ID.
	failUpsertFor string
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]storage.VectorEntry)}
}

func (s *memStore) Upsert(ctx context.Context, entries ...storage.VectorEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		if entry.Record.RecordID == s.failUpsertFor {
			return errors.New("injected upsert failure")
		}
	}
	for _, entry := range entries {
		s.entries[entry.Record.RecordID] = entry
	}
	return nil
}

func (s *memStore) Delete(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

func (s *memStore) Search(ctx context.Context, vector []float32, limit int) ([]storage.VectorHit, error) {
	return []storage.VectorHit{}, nil
}

func (s *memStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) get(id string) (storage.VectorEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	return entry, ok
}

func records(n int) iter.Seq[*core.ShowRecord] {
	return func(yield func(*core.ShowRecord) bool) {
		for i := 1; i <= n; i++ {
			record := &core.ShowRecord{
				RecordID:  fmt.Sprintf("anidb-%d", i),
				TitleMain: fmt.Sprintf("Show %d", i),
			}
			if !yield(record) {
				return
			}
		}
	}
}

func newTestPipeline(t *testing.T, store storage.VectorStore) *Pipeline {
	t.Helper()
	pipeline, err := NewPipeline(mock.NewMockEmbedder(), store)
	require.NoError(t, err)
	return pipeline
}

func TestIngest_BatchAccounting(t *testing.T) {
	store := newMemStore()
	pipeline := newTestPipeline(t, store)

	report, err := pipeline.Ingest(context.Background(), records(1458), 100, 5)
	require.NoError(t, err)

	assert.Equal(t, 15, report.TotalBatches)
	assert.Equal(t, 1458, report.TotalSucceeded)
	assert.Empty(t, report.FailedBatches)
	assert.Empty(t, report.RejectedRecords)
	assert.True(t, report.OK())

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1458, count)
}

func TestIngest_ConcurrencyDoesNotChangeOutcome(t *testing.T) {
	serial := newMemStore()
	concurrent := newMemStore()

	serialReport, err := newTestPipeline(t, serial).Ingest(context.Background(), records(347), 50, 1)
	require.NoError(t, err)

	concurrentReport, err := newTestPipeline(t, concurrent).Ingest(context.Background(), records(347), 50, 8)
	require.NoError(t, err)

	assert.Equal(t, serialReport.TotalSucceeded, concurrentReport.TotalSucceeded)
	assert.Equal(t, serialReport.TotalBatches, concurrentReport.TotalBatches)
}

func TestIngest_ReingestReplacesRecord(t *testing.T) {
	store := newMemStore()
	pipeline := newTestPipeline(t, store)
	ctx := context.Background()

	first := &core.ShowRecord{RecordID: "anidb-23", TitleMain: "Cowboy Bebop"}
	_, err := pipeline.Ingest(ctx, slices.Values([]*core.ShowRecord{first}), 10, 1)
	require.NoError(t, err)

	updated := &core.ShowRecord{RecordID: "anidb-23", TitleMain: "Cowboy Bebop", Description: "Updated synopsis."}
	_, err = pipeline.Ingest(ctx, slices.Values([]*core.ShowRecord{updated}), 10, 1)
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same record id never duplicates")

	entry, ok := store.get("anidb-23")
	require.True(t, ok)
	assert.Equal(t, "Updated synopsis.", entry.Record.Description)
}

func TestIngest_InvalidRecordRejectedAlone(t *testing.T) {
	store := newMemStore()
	pipeline := newTestPipeline(t, store)

	batch := []*core.ShowRecord{
		{RecordID: "anidb-1", TitleMain: "Show 1"},
		{RecordID: "anidb-2", TitleMain: "Show 2", BeginYear: 2000, EndYear: 1990},
		{RecordID: "anidb-3", TitleMain: "Show 3"},
	}

	report, err := pipeline.Ingest(context.Background(), slices.Values(batch), 10, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalSucceeded)
	require.Len(t, report.RejectedRecords, 1)
	assert.Equal(t, "anidb-2", report.RejectedRecords[0].RecordID)
	assert.ErrorIs(t, report.RejectedRecords[0].Err, core.ErrInvalidShowRecord)
	assert.Empty(t, report.FailedBatches)
}

func TestIngest_EmptyAfterValidationFailsBatch(t *testing.T) {
	store := newMemStore()
	pipeline := newTestPipeline(t, store)

	batch := []*core.ShowRecord{
		{RecordID: "", TitleMain: "No ID"},
		{TitleMain: "Also no ID"},
	}

	report, err := pipeline.Ingest(context.Background(), slices.Values(batch), 10, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalSucceeded)
	require.Len(t, report.FailedBatches, 1)
	assert.ErrorIs(t, report.FailedBatches[0].Err, ErrEmptyAfterValidation)
	assert.Len(t, report.RejectedRecords, 2)
}

func TestIngest_FailedBatchDoesNotAffectSiblings(t *testing.T) {
	store := newMemStore()
	store.failUpsertFor = "anidb-5"
	pipeline := newTestPipeline(t, store)

	report, err := pipeline.Ingest(context.Background(), records(30), 10, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalBatches)
	assert.Equal(t, 20, report.TotalSucceeded, "only the batch containing the poisoned record fails")
	require.Len(t, report.FailedBatches, 1)
	assert.Equal(t, 0, report.FailedBatches[0].BatchID)
}

func TestIngest_RerunHealsFailedBatch(t *testing.T) {
	store := newMemStore()
	pipeline := newTestPipeline(t, store)
	ctx := context.Background()

	_, err := pipeline.Ingest(ctx, records(30), 10, 1)
	require.NoError(t, err)

	// A poisoned re-ingest fails its batch after the delete already
	// removed the batch's previous entries.
	store.failUpsertFor = "anidb-5"
	report, err := pipeline.Ingest(ctx, records(30), 10, 1)
	require.NoError(t, err)
	require.Len(t, report.FailedBatches, 1)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, count, "failed batch's entries are gone until re-run")

	// Re-running the same input restores every record.
	store.failUpsertFor = ""
	report, err = pipeline.Ingest(ctx, records(30), 10, 1)
	require.NoError(t, err)
	assert.True(t, report.OK())

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, count)
}

func TestIngest_InvalidParameters(t *testing.T) {
	pipeline := newTestPipeline(t, newMemStore())
	ctx := context.Background()

	_, err := pipeline.Ingest(ctx, records(1), 0, 1)
	assert.ErrorIs(t, err, ErrInvalidBatchSize)

	_, err = pipeline.Ingest(ctx, records(1), 10, 0)
	assert.ErrorIs(t, err, ErrInvalidConcurrency)

	_, err = pipeline.Ingest(ctx, records(1), 10, -3)
	assert.ErrorIs(t, err, ErrInvalidConcurrency)
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	_, err := NewPipeline(nil, newMemStore())
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(mock.NewMockEmbedder(), nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestIngest_CancelledContextStopsDispatch(t *testing.T) {
	store := newMemStore()
	pipeline := newTestPipeline(t, store)

	ctx, cancel := context.WithCancel(context.Background())

	yielded := 0
	seq := func(yield func(*core.ShowRecord) bool) {
		for record := range records(100) {
			yielded++
			if yielded == 25 {
				cancel()
			}
			if !yield(record) {
				return
			}
		}
	}

	report, err := pipeline.Ingest(ctx, seq, 10, 2)
	require.NoError(t, err)

	assert.Less(t, yielded, 100, "dispatch stops consuming after cancellation")
	assert.LessOrEqual(t, report.TotalSucceeded, 20, "only batches dispatched before cancellation land")
	require.NotEmpty(t, report.FailedBatches, "the partial batch is reported failed")
	assert.ErrorIs(t, report.FailedBatches[len(report.FailedBatches)-1].Err, context.Canceled)
}
