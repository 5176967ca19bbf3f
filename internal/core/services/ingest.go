package services

import (
	"context"
	"fmt"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driven"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driving"
	"github.com/sahay-labs/sahay-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the ingestion pipeline: load the source document,
// split it into chunks, embed every chunk, and rebuild the vector index.
type IngestService struct {
	sourcePath string
	loader     driven.DocumentLoader
	processors []driven.PostProcessor
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
}

// NewIngestService creates an ingestion service for the given source file.
func NewIngestService(
	sourcePath string,
	loader driven.DocumentLoader,
	processors []driven.PostProcessor,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
) *IngestService {
	return &IngestService{
		sourcePath: sourcePath,
		loader:     loader,
		processors: processors,
		embedder:   embedder,
		index:      index,
	}
}

// Ingest runs the full pipeline. Any step failure aborts the run and leaves
// any previously persisted index untouched.
func (s *IngestService) Ingest(ctx context.Context) (*driving.IngestReport, error) {
	logger.Section("Ingestion")
	logger.Info("Loading document: %s", s.sourcePath)

	doc, err := s.loader.Load(ctx, s.sourcePath)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	logger.Info("Loaded %d pages from %q", len(doc.Pages), doc.Title)

	var chunks []domain.Chunk
	for _, p := range s.processors {
		logger.Debug("Running post-processor: %s", p.Name())
		chunks, err = p.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("post-processor %s: %w", p.Name(), err)
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document produced no chunks", domain.ErrInvalidInput)
	}
	logger.Info("Split into %d chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	logger.Info("Embedding chunks with %s (%d dimensions)",
		s.embedder.ModelName(), s.embedder.Dimensions())
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d chunks",
			len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	logger.Info("Rebuilding vector index")
	if err := s.index.Rebuild(ctx, chunks); err != nil {
		return nil, fmt.Errorf("rebuilding index: %w", err)
	}

	return &driving.IngestReport{
		Pages:      len(doc.Pages),
		Chunks:     len(chunks),
		Dimensions: s.embedder.Dimensions(),
		Model:      s.embedder.ModelName(),
	}, nil
}
