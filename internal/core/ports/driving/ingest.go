package driving

import "context"

// IngestService builds the persisted vector index from the source document.
type IngestService interface {
	// Ingest runs the whole pipeline: validate, load, split, embed, persist.
	// Any step failure aborts the run; no partial index is left behind.
	Ingest(ctx context.Context) (*IngestReport, error)
}

// IngestReport summarises a successful ingestion run.
type IngestReport struct {
	// Pages is the number of pages extracted from the source document.
	Pages int

	// Chunks is the number of chunks embedded and persisted.
	Chunks int

	// Dimensions is the embedding dimensionality of the persisted index.
	Dimensions int

	// Model is the embedding model recorded in the index.
	Model string
}
