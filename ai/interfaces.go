package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TitleExtractor derives a show title from a free-form question using a
// language model. It is the expensive fallback behind the deterministic
// pattern matching in package extract.
// Implementations must be thread-safe for concurrent use.
type TitleExtractor interface {
	// ExtractTitle returns the title candidate found in the question.
	// An empty string with a nil error means the model found no title;
	// callers treat that as a normal no-match branch, not a failure.
	ExtractTitle(ctx context.Context, question string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// TitleExtractor instances, ensuring they share configuration.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// TitleExtractor returns the title extraction service.
	// The returned TitleExtractor is safe for concurrent use.
	TitleExtractor() TitleExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
