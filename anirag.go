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


package anirag

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/anirag/ai"
	"github.com/poiesic/anirag/ai/openai"
	"github.com/poiesic/anirag/core"
	"github.com/poiesic/anirag/extract"
	"github.com/poiesic/anirag/fetch"
	"github.com/poiesic/anirag/ingestion"
	"github.com/poiesic/anirag/reindex"
	"github.com/poiesic/anirag/retrieval"
	"github.com/poiesic/anirag/storage"
	"github.com/poiesic/anirag/storage/badgervec"
	"github.com/poiesic/anirag/storage/jsonfile"
)

// Catalog owns the anime catalog's resources: the vector store, the
// external-metadata cache, and the AI provider. It hands out the
// operational components (retrieval engine, ingestion pipeline,
// reindexer) wired against those resources.
type Catalog struct {
	store    *badgervec.Store
	cache    *jsonfile.Cache
	provider ai.AIProvider
	fetcher  fetch.Client
	logger   *slog.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*catalogOptions)

type catalogOptions struct {
	aiConfig *ai.Config
	fetcher  fetch.Client
}

// WithAIConfig overrides the default AI configuration.
func WithAIConfig(config *ai.Config) CatalogOption {
	return func(o *catalogOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithFetcher sets the external metadata fetcher. Without one the
// retrieval engine still works but never fetches: the fallback path
// degrades to local results.
func WithFetcher(fetcher fetch.Client) CatalogOption {
	return func(o *catalogOptions) {
		o.fetcher = fetcher
	}
}

// Open opens a catalog rooted at dataDir. The vector store lives under
// dataDir/vectors, the metadata cache under dataDir/mcp_cache.
func Open(dataDir string, opts ...CatalogOption) (*Catalog, error) {
	options := &catalogOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	store, err := badgervec.Open(filepath.Join(dataDir, "vectors"))
	if err != nil {
		return nil, err
	}

	cache, err := jsonfile.Open(filepath.Join(dataDir, "mcp_cache"))
	if err != nil {
		store.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		cache.Close()
		store.Close()
		return nil, err
	}

	return &Catalog{
		store:    store,
		cache:    cache,
		provider: provider,
		fetcher:  options.fetcher,
		logger:   slog.Default(),
	}, nil
}

// Close releases the catalog's resources.
func (c *Catalog) Close() error {
	if err := c.provider.Close(); err != nil {
		c.logger.Error("error closing AI provider", "err", err)
	}
	if err := c.cache.Close(); err != nil {
		c.logger.Error("error closing metadata cache", "err", err)
		return err
	}
	if err := c.store.Close(); err != nil {
		c.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}

// VectorStore exposes the underlying vector store.
func (c *Catalog) VectorStore() storage.VectorStore {
	return c.store
}

// MetadataCache exposes the underlying metadata cache.
func (c *Catalog) MetadataCache() storage.MetadataCache {
	return c.cache
}

// NewEngine builds a retrieval engine over the catalog's resources.
func (c *Catalog) NewEngine(opts ...retrieval.EngineOption) *retrieval.Engine {
	retriever := retrieval.NewRetriever(c.provider.Embedder(), c.store)
	chain := extract.NewDefaultChain(c.provider.TitleExtractor())

	fetcher := c.fetcher
	if fetcher == nil {
		fetcher = unavailableFetcher{}
	}
	return retrieval.NewEngine(retriever, chain, c.cache, fetcher, opts...)
}

// unavailableFetcher reports every title as not found, which the
// engine treats as a normal degrade-to-local branch.
type unavailableFetcher struct{}

func (unavailableFetcher) FetchByTitle(ctx context.Context, title string) (*core.ShowRecord, error) {
	return nil, fetch.ErrNotFound
}

// NewIngestionPipeline builds an ingestion pipeline over the catalog's
// vector store.
func (c *Catalog) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(c.provider.Embedder(), c.store, opts...)
}

// NewReindexer builds a reindexer that rebuilds the vector store from
// the metadata cache.
func (c *Catalog) NewReindexer(config reindex.Config) (*reindex.Reindexer, error) {
	pipeline, err := c.NewIngestionPipeline()
	if err != nil {
		return nil, err
	}
	return reindex.NewReindexer(c.cache, pipeline, config)
}
