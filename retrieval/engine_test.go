package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/anirag/ai/mock"
	"github.com/poiesic/anirag/core"
	"github.com/poiesic/anirag/extract"
	"github.com/poiesic/anirag/fetch"
	"github.com/poiesic/anirag/storage"
)

// stubStore serves preset hits for every query and records upserts.
type stubStore struct {
	hits     []storage.VectorHit
	upserted []*core.ShowRecord
}

func (s *stubStore) Search(ctx context.Context, vector []float32, limit int) ([]storage.VectorHit, error) {
	if len(s.hits) > limit {
		return s.hits[:limit], nil
	}
	return s.hits, nil
}

func (s *stubStore) Upsert(ctx context.Context, entries ...storage.VectorEntry) error {
	for _, entry := range entries {
		s.upserted = append(s.upserted, entry.Record)
	}
	return nil
}

func (s *stubStore) Delete(ctx context.Context, ids ...string) error { return nil }
func (s *stubStore) Count(ctx context.Context) (int, error)          { return len(s.hits), nil }
func (s *stubStore) Close() error                                    { return nil }

// memCache is a map-backed MetadataCache.
type memCache struct {
	records map[string]*core.ShowRecord
}

func newMemCache() *memCache {
	return &memCache{records: make(map[string]*core.ShowRecord)}
}

func (c *memCache) Get(ctx context.Context, recordID string) (*core.ShowRecord, error) {
	if record, ok := c.records[recordID]; ok {
		return record, nil
	}
	return nil, storage.ErrNotFound
}

func (c *memCache) Put(ctx context.Context, record *core.ShowRecord) error {
	c.records[record.RecordID] = record
	return nil
}

func (c *memCache) FindByTitle(ctx context.Context, title string) (*core.ShowRecord, error) {
	for _, record := range c.records {
		if record.HasTitle(title) {
			return record, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (c *memCache) ListAll(ctx context.Context) ([]*core.ShowRecord, error) {
	var all []*core.ShowRecord
	for _, record := range c.records {
		all = append(all, record)
	}
	return all, nil
}

func (c *memCache) Stats(ctx context.Context) (storage.CacheStats, error) {
	return storage.CacheStats{RecordCount: len(c.records)}, nil
}

func (c *memCache) RebuildIndex(ctx context.Context) error { return nil }
func (c *memCache) Close() error                           { return nil }

// stubFetcher returns a fixed record or error and counts calls.
type stubFetcher struct {
	record *core.ShowRecord
	err    error
	calls  int
}

func (f *stubFetcher) FetchByTitle(ctx context.Context, title string) (*core.ShowRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func show(id, title string) *core.ShowRecord {
	return &core.ShowRecord{RecordID: id, TitleMain: title}
}

func localHits(n int, bestDistance float64) []storage.VectorHit {
	hits := make([]storage.VectorHit, n)
	for i := range hits {
		hits[i] = storage.VectorHit{
			Record:   show(fmt.Sprintf("anidb-%d", i+1), fmt.Sprintf("Show %d", i+1)),
			Distance: bestDistance + float64(i)*0.05,
		}
	}
	return hits
}

type engineFixture struct {
	engine    *Engine
	store     *stubStore
	cache     *memCache
	fetcher   *stubFetcher
	extractor *mock.MockTitleExtractor
}

func newFixture(hits []storage.VectorHit, fetcher *stubFetcher) *engineFixture {
	store := &stubStore{hits: hits}
	cache := newMemCache()
	extractor := mock.NewMockTitleExtractor()
	retriever := NewRetriever(mock.NewMockEmbedder(), store)
	engine := NewEngine(retriever, extract.NewDefaultChain(extractor), cache, fetcher)

	return &engineFixture{
		engine:    engine,
		store:     store,
		cache:     cache,
		fetcher:   fetcher,
		extractor: extractor,
	}
}

var defaultThresholds = Thresholds{MinResultCount: 3, MaxDistance: 0.5}

func TestRetrieve_SatisfiedSkipsFallback(t *testing.T) {
	fetcher := &stubFetcher{record: show("anidb-23", "Cowboy Bebop")}
	fx := newFixture(localHits(5, 0.28), fetcher)

	results, err := fx.engine.Retrieve(context.Background(), "Tell me about Cowboy Bebop", 5, defaultThresholds)
	require.NoError(t, err)

	require.Len(t, results, 5)
	for i, result := range results {
		assert.Equal(t, core.SourceVectorStore, result.Source)
		assert.Equal(t, fmt.Sprintf("anidb-%d", i+1), result.Record.RecordID, "local order unchanged")
	}
	assert.Equal(t, 0, fetcher.calls, "no fetch when thresholds are satisfied")
	assert.Equal(t, 0, fx.extractor.CallCount())
}

func TestRetrieve_FallbackViaLLMAndFetch(t *testing.T) {
	fetched := show("anidb-23", "Cowboy Bebop")
	fetcher := &stubFetcher{record: fetched}
	fx := newFixture(localHits(5, 1.15), fetcher)
	fx.extractor.Titles["that space cowboy show"] = "Cowboy Bebop"

	results, err := fx.engine.Retrieve(context.Background(), "That space cowboy show", 5, defaultThresholds)
	require.NoError(t, err)

	require.Len(t, results, 6)
	last := results[5]
	assert.Equal(t, "anidb-23", last.Record.RecordID, "external record appended after local results")
	assert.Equal(t, core.SourceExternalFallback, last.Source)
	assert.False(t, last.HasDistance())

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, fx.extractor.CallCount(), "patterns missed, LLM asked once")

	cached, err := fx.cache.Get(context.Background(), "anidb-23")
	require.NoError(t, err)
	assert.Equal(t, "Cowboy Bebop", cached.TitleMain)

	require.Len(t, fx.store.upserted, 1, "fetched record indexed for future local queries")
	assert.Equal(t, "anidb-23", fx.store.upserted[0].RecordID)
}

func TestRetrieve_FetchFailureDegradesToLocal(t *testing.T) {
	fetcher := &stubFetcher{err: fetch.ErrUnavailable}
	fx := newFixture(localHits(2, 0.3), fetcher)

	results, err := fx.engine.Retrieve(context.Background(), "Tell me about Cowboy Bebop", 5, defaultThresholds)
	require.NoError(t, err, "fetch failure is not a retrieval error")

	require.Len(t, results, 2)
	for _, result := range results {
		assert.Equal(t, core.SourceVectorStore, result.Source)
	}
	assert.Equal(t, 1, fetcher.calls)
}

func TestRetrieve_NoTitleDegradesToLocal(t *testing.T) {
	fetcher := &stubFetcher{record: show("anidb-23", "Cowboy Bebop")}
	fx := newFixture(localHits(2, 0.3), fetcher)

	results, err := fx.engine.Retrieve(context.Background(), "mecha anime recommendations", 5, defaultThresholds)
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.Equal(t, 0, fetcher.calls, "no fetch without a title")
	assert.Equal(t, 1, fx.extractor.CallCount())
}

func TestRetrieve_CacheHitSkipsFetch(t *testing.T) {
	fetcher := &stubFetcher{record: show("anidb-23", "Cowboy Bebop")}
	fx := newFixture(localHits(2, 0.3), fetcher)
	require.NoError(t, fx.cache.Put(context.Background(), show("anidb-23", "Cowboy Bebop")))

	results, err := fx.engine.Retrieve(context.Background(), "Tell me about Cowboy Bebop", 5, defaultThresholds)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, core.SourceExternalFallback, results[2].Source)
	assert.Equal(t, 0, fetcher.calls, "cached record avoids a network fetch")
}

func TestRetrieve_FallbackDedupedAgainstLocal(t *testing.T) {
	hits := localHits(2, 0.6)
	fetcher := &stubFetcher{record: show(hits[0].Record.RecordID, hits[0].Record.TitleMain)}
	fx := newFixture(hits, fetcher)
	fx.extractor.Titles["tell me about show 1"] = "Show 1"

	results, err := fx.engine.Retrieve(context.Background(), "Tell me about Show 1", 5, defaultThresholds)
	require.NoError(t, err)

	require.Len(t, results, 2, "external duplicate of a local result is dropped")
	assert.Equal(t, core.SourceVectorStore, results[0].Source, "local wins the tie")
}

func TestRetrieve_InvalidThresholds(t *testing.T) {
	fx := newFixture(nil, &stubFetcher{})

	_, err := fx.engine.Retrieve(context.Background(), "anything", 5, Thresholds{MinResultCount: 0, MaxDistance: 0.5})
	assert.ErrorIs(t, err, ErrInvalidThresholds)

	_, err = fx.engine.Retrieve(context.Background(), "anything", 5, Thresholds{MinResultCount: 3, MaxDistance: -1})
	assert.ErrorIs(t, err, ErrInvalidThresholds)
}

// recordingMonitor captures the hook sequence as event names.
type recordingMonitor struct {
	events []string
}

func (m *recordingMonitor) Start(_ string) { m.events = append(m.events, "start") }
func (m *recordingMonitor) AfterLocalSearch(_ []core.RetrievalResult) {
	m.events = append(m.events, "local")
}
func (m *recordingMonitor) Satisfied(_ []core.RetrievalResult) {
	m.events = append(m.events, "satisfied")
}
func (m *recordingMonitor) FallbackStarted(_ string)    { m.events = append(m.events, "fallback") }
func (m *recordingMonitor) TitleExtracted(title string) { m.events = append(m.events, "title:"+title) }
func (m *recordingMonitor) CacheHit(_ *core.ShowRecord) { m.events = append(m.events, "cache-hit") }
func (m *recordingMonitor) Fetched(r *core.ShowRecord) {
	m.events = append(m.events, "fetched:"+r.RecordID)
}
func (m *recordingMonitor) FetchFailed(_ error)             { m.events = append(m.events, "fetch-failed") }
func (m *recordingMonitor) Finish(_ []core.RetrievalResult) { m.events = append(m.events, "finish") }

func TestRetrieve_MonitorObservesFallback(t *testing.T) {
	monitor := &recordingMonitor{}
	fetcher := &stubFetcher{record: show("anidb-23", "Cowboy Bebop")}
	fx := newFixture(localHits(2, 0.3), fetcher)
	WithMonitor(monitor)(fx.engine)

	_, err := fx.engine.Retrieve(context.Background(), "Tell me about Cowboy Bebop", 5, defaultThresholds)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start", "local", "fallback",
		"title:cowboy bebop", "fetched:anidb-23", "satisfied", "finish",
	}, monitor.events)
}

func TestRetrieve_MonitorObservesDegradedFallback(t *testing.T) {
	monitor := &recordingMonitor{}
	fetcher := &stubFetcher{err: fetch.ErrUnavailable}
	fx := newFixture(localHits(2, 0.3), fetcher)
	WithMonitor(monitor)(fx.engine)

	_, err := fx.engine.Retrieve(context.Background(), "Tell me about Cowboy Bebop", 5, defaultThresholds)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start", "local", "fallback",
		"title:cowboy bebop", "fetch-failed", "satisfied", "finish",
	}, monitor.events, "degraded runs still terminate satisfied with the local results")
}

func TestRetrieve_MonitorObservesSatisfied(t *testing.T) {
	monitor := &recordingMonitor{}
	fx := newFixture(localHits(5, 0.28), &stubFetcher{})
	WithMonitor(monitor)(fx.engine)

	_, err := fx.engine.Retrieve(context.Background(), "Tell me about Cowboy Bebop", 5, defaultThresholds)
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "local", "satisfied", "finish"}, monitor.events)
}

func TestMergeIdempotent(t *testing.T) {
	set := []core.RetrievalResult{
		{Record: show("anidb-1", "Show 1"), Distance: 0.1, Source: core.SourceVectorStore},
		{Record: show("anidb-2", "Show 2"), Distance: 0.2, Source: core.SourceVectorStore},
	}

	merged := Merge(set, set)
	assert.Equal(t, set, merged)

	again := Merge(merged, merged)
	assert.Equal(t, merged, again)
}

func TestMergeLocalBeforeExternal(t *testing.T) {
	local := []core.RetrievalResult{
		{Record: show("anidb-1", "Show 1"), Distance: 0.9, Source: core.SourceVectorStore},
	}
	external := []core.RetrievalResult{
		{Record: show("anidb-2", "Show 2"), Source: core.SourceExternalFallback},
		{Record: show("anidb-1", "Show 1"), Source: core.SourceExternalFallback},
	}

	merged := Merge(local, external)
	require.Len(t, merged, 2)
	assert.Equal(t, "anidb-1", merged[0].Record.RecordID)
	assert.Equal(t, core.SourceVectorStore, merged[0].Source)
	assert.Equal(t, "anidb-2", merged[1].Record.RecordID)
}

func TestThresholdsSatisfied(t *testing.T) {
	tests := []struct {
		name    string
		results []core.RetrievalResult
		want    bool
	}{
		{"enough and close", []core.RetrievalResult{
			{Record: show("a", "A"), Distance: 0.2, Source: core.SourceVectorStore},
			{Record: show("b", "B"), Distance: 0.3, Source: core.SourceVectorStore},
		}, true},
		{"too few", []core.RetrievalResult{
			{Record: show("a", "A"), Distance: 0.2, Source: core.SourceVectorStore},
		}, false},
		{"best too far", []core.RetrievalResult{
			{Record: show("a", "A"), Distance: 0.8, Source: core.SourceVectorStore},
			{Record: show("b", "B"), Distance: 0.9, Source: core.SourceVectorStore},
		}, false},
		{"external results do not count", []core.RetrievalResult{
			{Record: show("a", "A"), Distance: 0.2, Source: core.SourceVectorStore},
			{Record: show("b", "B"), Source: core.SourceExternalFallback},
		}, false},
		{"empty", nil, false},
	}

	thresholds := Thresholds{MinResultCount: 2, MaxDistance: 0.5}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, thresholds.Satisfied(tt.results))
		})
	}
}

func TestRetrieverSearch_Validation(t *testing.T) {
	retriever := NewRetriever(mock.NewMockEmbedder(), &stubStore{})

	_, err := retriever.Search(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = retriever.Search(context.Background(), "question", 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestRetrieverSearch_NeverNil(t *testing.T) {
	retriever := NewRetriever(mock.NewMockEmbedder(), &stubStore{})

	results, err := retriever.Search(context.Background(), "question", 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRetrieveBatch(t *testing.T) {
	fetcher := &stubFetcher{err: fetch.ErrNotFound}
	fx := newFixture(localHits(5, 0.2), fetcher)

	questions := make([]string, 20)
	for i := range questions {
		questions[i] = fmt.Sprintf("Tell me about Show %d", i+1)
	}

	answers, err := fx.engine.RetrieveBatch(context.Background(), questions, 5, defaultThresholds, 4)
	require.NoError(t, err)
	require.Len(t, answers, 20)

	for i, answer := range answers {
		assert.Equal(t, questions[i], answer.Question, "answers keep question order")
		require.NoError(t, answer.Err)
		assert.Len(t, answer.Results, 5)
	}
}

func TestRetrieveBatch_InvalidConcurrency(t *testing.T) {
	fx := newFixture(nil, &stubFetcher{})

	_, err := fx.engine.RetrieveBatch(context.Background(), []string{"q"}, 5, defaultThresholds, 0)
	assert.ErrorIs(t, err, ErrInvalidConcurrency)
}

func TestRetrieveBatch_CancelledContext(t *testing.T) {
	fx := newFixture(localHits(5, 0.2), &stubFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	answers, err := fx.engine.RetrieveBatch(ctx, []string{"a", "b"}, 5, defaultThresholds, 2)
	require.NoError(t, err)
	for _, answer := range answers {
		assert.ErrorIs(t, answer.Err, context.Canceled)
	}
}

func TestRetrieve_IsolatedPerQuestionFailure(t *testing.T) {
	fx := newFixture(localHits(5, 0.2), &stubFetcher{})

	answers, err := fx.engine.RetrieveBatch(context.Background(),
		[]string{"Tell me about Show 1", "   "}, 5, defaultThresholds, 2)
	require.NoError(t, err)
	require.Len(t, answers, 2)

	assert.NoError(t, answers[0].Err)
	assert.True(t, errors.Is(answers[1].Err, ErrEmptyQuestion) ||
		strings.Contains(answers[1].Err.Error(), "empty"))
}
