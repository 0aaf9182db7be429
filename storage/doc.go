// Package storage defines the persistence interfaces for the anime
// catalog: a VectorStore holding show embeddings for nearest-neighbor
// search, and a MetadataCache holding externally fetched show records.
//
// The two stores serve different failure modes. The vector store is
// rebuildable from the catalog at any time and answers "what is
// semantically close to this question". The metadata cache is the
// system's memory of network fetches and answers "have we already
// looked this show up", so misses there cost a real network call.
//
// Concrete implementations live in subpackages: badgervec provides a
// BadgerDB-backed vector store, jsonfile provides a plain-file
// metadata cache with a rebuildable index.
package storage
