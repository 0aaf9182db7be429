// Package ingestion loads show records into the vector store. Records
// stream in lazily, get grouped into fixed-size batches, and the
// batches run concurrently under an explicit bound. Failures stay
// local: a bad record is rejected on its own, a bad batch fails on its
// own, and the final report accounts for all of it.
package ingestion
