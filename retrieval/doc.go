// Package retrieval answers catalog questions. The Retriever does the
// local similarity search; the Engine judges whether its results are
// good enough and falls back to the external metadata source when they
// are not.
//
// The engine never raises on a degraded fallback. Missing titles,
// cache misses, fetch failures: all of them collapse to "answer with
// what the vector store already had", and the caller learns what
// happened from each result's Source tag.
package retrieval
