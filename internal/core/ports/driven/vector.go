package driven

import (
	"context"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
)

// VectorIndex persists chunk vectors plus original text and supports
// nearest-neighbour lookup by inner product (vectors are pre-normalised,
// so this equals cosine similarity).
//
// The index is rebuilt wholesale on each ingestion run; there are no
// partial updates. A rebuild either completes and atomically replaces any
// prior index, or leaves the prior index untouched.
type VectorIndex interface {
	// Rebuild replaces the whole index with the given chunks.
	// Every chunk must carry an embedding of the configured dimensionality.
	Rebuild(ctx context.Context, chunks []domain.Chunk) error

	// Search finds the k nearest neighbours to the query vector, ordered by
	// descending similarity. Ties are broken by insertion order (the
	// earlier-indexed chunk wins). An empty index returns an empty slice.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk, with its original text.
	Chunk domain.Chunk

	// Similarity is the inner-product similarity score.
	Similarity float64
}
