// Package reindex rebuilds the vector store from the metadata cache.
// The vector store is treated as disposable; the cache plus the
// catalog are the sources of truth.
package reindex
