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


package badgervec

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/anirag/core"
	"github.com/poiesic/anirag/storage"
)

const entryPrefix = "showvec:"

func makeEntryKey(recordID string) []byte {
	return []byte(entryPrefix + recordID)
}

// storedEntry is the on-disk shape of one vector store entry.
type storedEntry struct {
	Record *core.ShowRecord `json:"record"`
	Vector []float32        `json:"vector"`
}

// Store implements storage.VectorStore on BadgerDB. Queries scan every
// stored vector and rank by exact cosine distance; at catalog scale
// (thousands of shows) the scan is cheaper than maintaining an
// approximate index.
type Store struct {
	backend *Backend
}

// NewStore creates a vector store over an open backend. The store does
// not own the backend; the caller closes it.
func NewStore(backend *Backend) *Store {
	return &Store{backend: backend}
}

// Open opens a vector store at the given path, creating it if needed.
// The returned store owns its backend and releases it on Close.
func Open(path string) (*Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend}, nil
}

// OpenInMemory opens an ephemeral vector store for tests.
func OpenInMemory() (*Store, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend}, nil
}

// Upsert stores the given entries, replacing existing ones by record ID.
func (s *Store) Upsert(ctx context.Context, entries ...storage.VectorEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			if entry.Record == nil || entry.Record.RecordID == "" {
				return fmt.Errorf("%w: entry without record id", storage.ErrInvalidQuery)
			}
			if len(entry.Vector) == 0 {
				return fmt.Errorf("%w: entry %s without vector", storage.ErrInvalidQuery, entry.Record.RecordID)
			}

			data, err := json.Marshal(storedEntry{Record: entry.Record, Vector: entry.Vector})
			if err != nil {
				return fmt.Errorf("encode entry %s: %w", entry.Record.RecordID, err)
			}
			if err := tx.Set(makeEntryKey(entry.Record.RecordID), data); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Delete removes the entries with the given record IDs.
// Missing IDs are not an error.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeEntryKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Search returns up to limit entries nearest to the query vector,
// ordered by ascending cosine distance.
func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]storage.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	hits := []storage.VectorHit{}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry storedEntry
			err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrCorruptEntry, err)
			}
			if entry.Record == nil || len(entry.Vector) == 0 {
				continue
			}

			hits = append(hits, storage.VectorHit{
				Record:   entry.Record,
				Distance: cosineDistance(vector, entry.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(hits, func(a, b storage.VectorHit) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count reports the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// cosineDistance is 1 minus cosine similarity. Vectors of zero
// magnitude are maximally distant.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

var _ storage.VectorStore = (*Store)(nil)
