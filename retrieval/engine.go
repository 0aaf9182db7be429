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


package retrieval

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/anirag/core"
	"github.com/poiesic/anirag/extract"
	"github.com/poiesic/anirag/fetch"
	"github.com/poiesic/anirag/storage"
)

// Engine decides whether local retrieval was good enough and, when it
// was not, falls back to the external metadata source. The fallback
// path is strictly sequential: extract a title, check the cache, fetch
// on a miss, merge. Every step that fails degrades to returning the
// local results; the engine never turns a bad fallback into an error.
type Engine struct {
	retriever *Retriever
	extractor *extract.Chain
	cache     storage.MetadataCache
	fetcher   fetch.Client
	logger    *slog.Logger
	monitor   Monitor

	// writeThrough controls whether fetched records are also indexed
	// into the vector store so later queries can find them locally.
	writeThrough bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets a custom logger.
// Default is slog.Default().
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// WithoutWriteThrough disables indexing fetched records into the
// vector store. Fetched records are still cached.
func WithoutWriteThrough() EngineOption {
	return func(e *Engine) {
		e.writeThrough = false
	}
}

// WithMonitor installs a Monitor whose hooks fire as a retrieval moves
// through the decision process. Default is a no-op.
func WithMonitor(m Monitor) EngineOption {
	return func(e *Engine) {
		if m == nil {
			m = noopMonitor{}
		}
		e.monitor = m
	}
}

// NewEngine wires the fallback decision engine.
func NewEngine(retriever *Retriever, extractor *extract.Chain, cache storage.MetadataCache, fetcher fetch.Client, opts ...EngineOption) *Engine {
	e := &Engine{
		retriever:    retriever,
		extractor:    extractor,
		cache:        cache,
		fetcher:      fetcher,
		logger:       slog.Default().With("component", "retrieval-engine"),
		monitor:      noopMonitor{},
		writeThrough: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retrieve answers a question with up to limit results. When the local
// results satisfy the thresholds they are returned unchanged; otherwise
// the external fallback runs and its record, if any, is appended after
// the local results.
func (e *Engine) Retrieve(ctx context.Context, question string, limit int, thresholds Thresholds) ([]core.RetrievalResult, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	e.monitor.Start(question)

	local, err := e.retriever.Search(ctx, question, limit)
	if err != nil {
		return nil, err
	}
	e.monitor.AfterLocalSearch(local)

	if thresholds.Satisfied(local) {
		e.logger.Debug("local results satisfied thresholds", "question", question, "results", len(local))
		e.monitor.Satisfied(local)
		e.monitor.Finish(local)
		return local, nil
	}

	e.logger.Info("local results insufficient, trying external fallback",
		"question", question, "results", len(local))
	e.monitor.FallbackStarted(question)

	record := e.fallback(ctx, question)
	if record == nil {
		e.monitor.Satisfied(local)
		e.monitor.Finish(local)
		return local, nil
	}

	merged := Merge(local, []core.RetrievalResult{{
		Record: record,
		Source: core.SourceExternalFallback,
	}})
	e.monitor.Satisfied(merged)
	e.monitor.Finish(merged)
	return merged, nil
}

// fallback runs the sequential fallback chain and returns the fetched
// or cached record, or nil when the chain degrades.
func (e *Engine) fallback(ctx context.Context, question string) *core.ShowRecord {
	title, err := e.extractor.Extract(ctx, question)
	if err != nil {
		if errors.Is(err, extract.ErrNoTitle) {
			e.logger.Info("no title extractable, keeping local results", "question", question)
		} else {
			e.logger.Warn("title extraction failed", "question", question, "err", err)
		}
		return nil
	}
	e.monitor.TitleExtracted(title)

	cached, err := e.cache.FindByTitle(ctx, title)
	if err == nil {
		e.logger.Info("fallback served from cache", "title", title, "record_id", cached.RecordID)
		e.monitor.CacheHit(cached)
		return cached
	}
	if !errors.Is(err, storage.ErrNotFound) {
		e.logger.Warn("cache lookup failed", "title", title, "err", err)
	}

	fetched, err := e.fetcher.FetchByTitle(ctx, title)
	if err != nil {
		e.monitor.FetchFailed(err)
		if errors.Is(err, fetch.ErrNotFound) {
			e.logger.Info("external source has no such show", "title", title)
		} else {
			e.logger.Warn("external fetch failed", "title", title, "err", err)
		}
		return nil
	}

	// Persist for the next question about this show. Neither write is
	// allowed to fail the current answer.
	if err := e.cache.Put(ctx, fetched); err != nil {
		e.logger.Warn("failed to cache fetched record", "record_id", fetched.RecordID, "err", err)
	}
	if e.writeThrough {
		if err := e.retriever.Index(ctx, fetched); err != nil {
			e.logger.Warn("failed to index fetched record", "record_id", fetched.RecordID, "err", err)
		}
	}

	e.logger.Info("fallback fetched external record", "title", title, "record_id", fetched.RecordID)
	e.monitor.Fetched(fetched)
	return fetched
}

// Merge combines local and external results into one sequence, unique
// by record ID. Local results keep their order and win every tie;
// external results are appended in order after them. Merge is
// idempotent: merging a set with itself returns the same set.
func Merge(local, external []core.RetrievalResult) []core.RetrievalResult {
	merged := make([]core.RetrievalResult, 0, len(local)+len(external))
	seen := make(map[string]bool, len(local)+len(external))

	for _, result := range local {
		if result.Record == nil || seen[result.Record.RecordID] {
			continue
		}
		seen[result.Record.RecordID] = true
		merged = append(merged, result)
	}
	for _, result := range external {
		if result.Record == nil || seen[result.Record.RecordID] {
			continue
		}
		seen[result.Record.RecordID] = true
		merged = append(merged, result)
	}
	return merged
}
