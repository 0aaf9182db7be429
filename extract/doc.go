// Package extract derives a canonical search title from a free-form
// question about the catalog.
//
// Extraction is an ordered chain of strategies: deterministic regular
// expression patterns run first (pure, free, fast), and an LLM-backed
// strategy runs only when no pattern matches. The chain returns
// ErrNoTitle when every strategy misses, which callers treat as a
// normal degradation branch rather than a failure.
package extract
