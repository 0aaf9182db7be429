// Package badgervec implements storage.VectorStore on BadgerDB.
// Entries are keyed by record ID and searches do an exact scan, which
// keeps writes idempotent and results reproducible.
package badgervec
