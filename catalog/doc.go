// Package catalog parses Shoko anime catalog dumps into show records
// ready for ingestion. Parsing is deliberately lenient: upstream dumps
// mix numbers with numeric strings and carry BBCode in descriptions,
// and a malformed row is skipped rather than failing the load.
package catalog
