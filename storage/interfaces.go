package storage

import (
	"context"
	"time"

	"github.com/poiesic/anirag/core"
)

// VectorEntry pairs a show record with its embedding for storage.
type VectorEntry struct {
	Record *core.ShowRecord
	Vector []float32
}

// VectorHit is a single nearest-neighbor match. Distance is cosine
// distance: 0 means identical direction, larger means less similar.
type VectorHit struct {
	Record   *core.ShowRecord
	Distance float64
}

// VectorStore persists show embeddings and answers nearest-neighbor
// queries. Implementations must be safe for concurrent use.
type VectorStore interface {
	// Upsert stores the given entries, replacing any existing entries
	// with the same record ID.
	Upsert(ctx context.Context, entries ...VectorEntry) error

	// Delete removes the entries with the given record IDs.
	// Missing IDs are not an error.
	Delete(ctx context.Context, ids ...string) error

	// Search returns up to limit entries nearest to the query vector,
	// ordered by ascending distance. An empty store yields an empty
	// slice, not an error.
	Search(ctx context.Context, vector []float32, limit int) ([]VectorHit, error)

	// Count reports the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying resources.
	Close() error
}

// IndexEntry is one row of the metadata cache index: enough to find a
// record on disk and match it by title without reading its file.
type IndexEntry struct {
	RecordID   string    `json:"record_id"`
	TitleMain  string    `json:"title_main"`
	TitleAlts  []string  `json:"title_alts,omitempty"`
	StorageKey string    `json:"storage_key"`
	FetchedAt  time.Time `json:"fetched_at,omitzero"`
}

// CacheStats summarizes the state of a metadata cache.
type CacheStats struct {
	RecordCount     int
	StorageLocation string
	OldestFetch     time.Time
	NewestFetch     time.Time
	IndexedBytes    int64
}

// MetadataCache stores externally fetched show records so that repeat
// questions about the same show never trigger a second network fetch.
// Implementations must be safe for concurrent use.
type MetadataCache interface {
	// Get retrieves a cached record by ID.
	// Returns ErrNotFound if the record is not cached.
	Get(ctx context.Context, recordID string) (*core.ShowRecord, error)

	// Put stores a record, overwriting any previous entry with the
	// same ID, and updates the index.
	Put(ctx context.Context, record *core.ShowRecord) error

	// FindByTitle returns the first cached record whose main or
	// alternative title equals the given title, ignoring case.
	// Returns ErrNotFound when no record matches.
	FindByTitle(ctx context.Context, title string) (*core.ShowRecord, error)

	// ListAll returns every cached record.
	ListAll(ctx context.Context) ([]*core.ShowRecord, error)

	// Stats reports cache size and freshness.
	Stats(ctx context.Context) (CacheStats, error)

	// RebuildIndex reconstructs the index by scanning the stored
	// records, discarding the previous index.
	RebuildIndex(ctx context.Context) error

	// Close flushes pending state and releases resources.
	Close() error
}
