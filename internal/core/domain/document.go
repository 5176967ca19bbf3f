package domain

import "time"

// Document represents a loaded source document before chunking.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path).
	URI string

	// Title is the human-readable title, derived from the file name.
	Title string

	// Pages holds the extracted text in page order.
	Pages []Page

	// LoadedAt is when the document was read from disk.
	LoadedAt time.Time
}

// Page is the text content of a single document page.
type Page struct {
	// Number is the 1-based page number in the source document.
	Number int

	// Content is the extracted text of the page.
	Content string
}

// Chunk represents the unit of embedding and retrieval.
// Chunks are immutable once produced by the splitter.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Page is the source page number, retained for traceability.
	Page int

	// Position is the ordinal position across the whole document.
	// It defines the stable insertion order used for tie-breaking.
	Position int

	// Embedding is the normalised vector representation of Content.
	Embedding []float32
}
