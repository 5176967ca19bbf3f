package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The same service must be used at ingestion and at query time; the index
// records the model name so a mismatch is caught at load.
//
// Note: this is separate from VectorIndex, which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations may include:
//   - watsonx.ai (ibm/slate-30m-english-rtrvr)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a normalised vector embedding for the given text.
	// Embedding is deterministic for identical text and model version.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// This must match the VectorIndex configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
