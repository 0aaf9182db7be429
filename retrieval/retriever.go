package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/anirag/ai"
	"github.com/poiesic/anirag/core"
	"github.com/poiesic/anirag/storage"
)

// Retriever answers similarity queries: embed the question, search the
// vector store, tag the hits as locally sourced.
type Retriever struct {
	embedder ai.Embedder
	store    storage.VectorStore
}

// NewRetriever creates a retriever over an embedder and vector store.
func NewRetriever(embedder ai.Embedder, store storage.VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Search returns up to limit results for the question, ordered by
// ascending distance. The result is never nil: an empty store yields
// an empty slice.
func (r *Retriever) Search(ctx context.Context, question string, limit int) ([]core.RetrievalResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	vector, err := r.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := r.store.Search(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]core.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, core.RetrievalResult{
			Record:   hit.Record,
			Distance: hit.Distance,
			Source:   core.SourceVectorStore,
		})
	}
	return results, nil
}

// Index embeds a record's text and upserts it into the vector store,
// making it visible to future searches.
func (r *Retriever) Index(ctx context.Context, record *core.ShowRecord) error {
	vector, err := r.embedder.EmbedText(ctx, record.EmbedText())
	if err != nil {
		return fmt.Errorf("embed record %s: %w", record.RecordID, err)
	}
	return r.store.Upsert(ctx, storage.VectorEntry{Record: record, Vector: vector})
}
