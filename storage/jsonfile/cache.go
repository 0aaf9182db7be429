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


package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/anirag/core"
	"github.com/poiesic/anirag/storage"
)

const (
	indexFileName = "index.json"
	indexVersion  = "1.0"
)

// indexFile is the on-disk shape of index.json.
type indexFile struct {
	Version string                        `json:"version"`
	Created time.Time                     `json:"created"`
	Shows   map[string]storage.IndexEntry `json:"shows"`
}

// Cache is a plain-file implementation of storage.MetadataCache.
// Each record lives in its own JSON file named by a hash of its ID, and
// index.json maps record IDs to titles and filenames. The record file
// is always written before the index entry, so the index never points
// at a file that does not exist; the reverse (an orphaned record file)
// is repaired by RebuildIndex.
type Cache struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	index indexFile
	open  bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// Open creates or opens a metadata cache rooted at dir. The directory
// is created if missing; an existing index.json is loaded as-is.
func Open(dir string, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &Cache{
		dir:    dir,
		logger: slog.Default().With("component", "metadata-cache"),
		open:   true,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.loadIndex(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) loadIndex() error {
	path := filepath.Join(c.dir, indexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.index = indexFile{
				Version: indexVersion,
				Created: time.Now().UTC(),
				Shows:   make(map[string]storage.IndexEntry),
			}
			return c.saveIndexLocked()
		}
		return fmt.Errorf("read index: %w", err)
	}

	if err := json.Unmarshal(data, &c.index); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrCorruptEntry, err)
	}
	if c.index.Shows == nil {
		c.index.Shows = make(map[string]storage.IndexEntry)
	}
	return nil
}

// saveIndexLocked writes index.json atomically. Caller holds c.mu.
func (c *Cache) saveIndexLocked() error {
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return writeFileAtomic(filepath.Join(c.dir, indexFileName), data)
}

// writeFileAtomic writes via a temp file and rename so readers never
// observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// recordPath resolves the on-disk file for a record. The storage key
// persisted in the index wins, so files stay reachable even if the key
// derivation ever changes; the hash is only recomputed for records the
// index does not know yet. Caller holds c.mu.
func (c *Cache) recordPath(recordID string) string {
	key := storageKey(recordID)
	if entry, ok := c.index.Shows[recordID]; ok && entry.StorageKey != "" {
		key = entry.StorageKey
	}
	return filepath.Join(c.dir, key+".json")
}

// Put stores a record and updates the index. The record file lands on
// disk before the index entry does.
func (c *Cache) Put(ctx context.Context, record *core.ShowRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateShowRecord(record); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return storage.ErrStorageClosed
	}

	stored := *record
	if stored.FetchedAt.IsZero() {
		stored.FetchedAt = time.Now().UTC()
	}

	key := storageKey(record.RecordID)
	if entry, ok := c.index.Shows[record.RecordID]; ok && entry.StorageKey != "" {
		key = entry.StorageKey
	}

	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record %s: %w", record.RecordID, err)
	}
	if err := writeFileAtomic(filepath.Join(c.dir, key+".json"), data); err != nil {
		return fmt.Errorf("write record %s: %w", record.RecordID, err)
	}

	c.index.Shows[record.RecordID] = storage.IndexEntry{
		RecordID:   record.RecordID,
		TitleMain:  record.TitleMain,
		TitleAlts:  record.TitleAlts,
		StorageKey: key,
		FetchedAt:  stored.FetchedAt,
	}
	if err := c.saveIndexLocked(); err != nil {
		return err
	}

	c.logger.Debug("cached show record", "record_id", record.RecordID, "title", record.TitleMain)
	return nil
}

// Get retrieves a cached record by ID.
func (c *Cache) Get(ctx context.Context, recordID string) (*core.ShowRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.open {
		return nil, storage.ErrStorageClosed
	}

	if _, ok := c.index.Shows[recordID]; !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, recordID)
	}
	return c.readRecord(recordID)
}

// readRecord loads and decodes one record file. Caller holds c.mu.
func (c *Cache) readRecord(recordID string) (*core.ShowRecord, error) {
	data, err := os.ReadFile(c.recordPath(recordID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrIndexOutOfSync, recordID)
		}
		return nil, fmt.Errorf("read record %s: %w", recordID, err)
	}

	var record core.ShowRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: record %s: %w", storage.ErrCorruptEntry, recordID, err)
	}
	return &record, nil
}

// FindByTitle scans the index for a case-insensitive title match.
// A linear scan is fine here: the cache only ever holds shows someone
// actually asked about, not the whole catalog.
func (c *Cache) FindByTitle(ctx context.Context, title string) (*core.ShowRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return nil, fmt.Errorf("%w: empty title", storage.ErrInvalidQuery)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.open {
		return nil, storage.ErrStorageClosed
	}

	for id, entry := range c.index.Shows {
		if strings.ToLower(entry.TitleMain) == needle {
			return c.readRecord(id)
		}
		for _, alt := range entry.TitleAlts {
			if strings.ToLower(alt) == needle {
				return c.readRecord(id)
			}
		}
	}
	return nil, fmt.Errorf("%w: title %q", storage.ErrNotFound, title)
}

// ListAll returns every cached record.
func (c *Cache) ListAll(ctx context.Context) ([]*core.ShowRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.open {
		return nil, storage.ErrStorageClosed
	}

	records := make([]*core.ShowRecord, 0, len(c.index.Shows))
	for id := range c.index.Shows {
		record, err := c.readRecord(id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Stats reports cache size and freshness.
func (c *Cache) Stats(ctx context.Context) (storage.CacheStats, error) {
	if err := ctx.Err(); err != nil {
		return storage.CacheStats{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.open {
		return storage.CacheStats{}, storage.ErrStorageClosed
	}

	stats := storage.CacheStats{
		RecordCount:     len(c.index.Shows),
		StorageLocation: c.dir,
	}
	for id, entry := range c.index.Shows {
		if !entry.FetchedAt.IsZero() {
			if stats.OldestFetch.IsZero() || entry.FetchedAt.Before(stats.OldestFetch) {
				stats.OldestFetch = entry.FetchedAt
			}
			if entry.FetchedAt.After(stats.NewestFetch) {
				stats.NewestFetch = entry.FetchedAt
			}
		}
		if info, err := os.Stat(c.recordPath(id)); err == nil {
			stats.IndexedBytes += info.Size()
		}
	}
	return stats, nil
}

// RebuildIndex discards the index and reconstructs it from the record
// files on disk. Files that fail to decode are skipped with a warning
// rather than aborting the rebuild.
func (c *Cache) RebuildIndex(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return storage.ErrStorageClosed
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("scan cache dir: %w", err)
	}

	rebuilt := indexFile{
		Version: indexVersion,
		Created: c.index.Created,
		Shows:   make(map[string]storage.IndexEntry),
	}
	if rebuilt.Created.IsZero() {
		rebuilt.Created = time.Now().UTC()
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == indexFileName || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		var record core.ShowRecord
		if err := json.Unmarshal(data, &record); err != nil {
			c.logger.Warn("skipping undecodable cache file", "file", name, "err", err)
			continue
		}
		if record.RecordID == "" {
			c.logger.Warn("skipping cache file without record id", "file", name)
			continue
		}

		rebuilt.Shows[record.RecordID] = storage.IndexEntry{
			RecordID:   record.RecordID,
			TitleMain:  record.TitleMain,
			TitleAlts:  record.TitleAlts,
			StorageKey: strings.TrimSuffix(name, ".json"),
			FetchedAt:  record.FetchedAt,
		}
	}

	c.index = rebuilt
	if err := c.saveIndexLocked(); err != nil {
		return err
	}

	c.logger.Info("rebuilt cache index", "records", len(rebuilt.Shows))
	return nil
}

// Close marks the cache closed. Subsequent calls fail with
// ErrStorageClosed. Close is idempotent.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

var _ storage.MetadataCache = (*Cache)(nil)
