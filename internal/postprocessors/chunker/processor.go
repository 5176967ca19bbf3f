// Package chunker provides an overlapping, boundary-preferring text
// chunking processor.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 150

// separators are tried in order when looking for a cut point:
// paragraph break, line break, word break. A hard character cut is the
// fallback when none occurs late enough in the window.
var separators = []string{"\n\n", "\n", " "}

// Processor splits page text into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// The overlap must stay below half the chunk size so every step
	// makes forward progress.
	if p.overlap*2 >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits each page of the document into chunks.
// Input chunks are ignored; this processor creates new chunks from page
// content. Chunk order within a page follows text order, and every chunk
// keeps its source page number.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	var chunks []domain.Chunk
	position := 0

	for _, page := range doc.Pages {
		for _, part := range p.split(page.Content) {
			chunks = append(chunks, domain.Chunk{
				ID:         uuid.New().String(),
				DocumentID: doc.ID,
				Content:    part,
				Page:       page.Number,
				Position:   position,
			})
			position++
		}
	}

	return chunks, nil
}

// split cuts text into windows of at most chunkSize characters, each
// starting overlap characters before the previous cut. Whitespace-only
// text produces no parts.
func (p *Processor) split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= p.chunkSize {
		return []string{text}
	}

	var parts []string
	start := 0
	for start < len(text) {
		end := start + p.chunkSize
		if end >= len(text) {
			tail := text[start:]
			if strings.TrimSpace(tail) != "" {
				parts = append(parts, tail)
			}
			break
		}

		cut := p.boundary(text, start, end)
		parts = append(parts, text[start:cut])

		next := cut - p.overlap
		if next <= start {
			// Degenerate parameters; skip the overlap rather than loop.
			next = cut
		}
		start = next
	}

	return parts
}

// boundary returns the cut position in (start, end]. It prefers the last
// paragraph break in the window, then the last line break, then the last
// word break. A boundary in the first half of the window is out of budget
// and falls through to the hard cut at end.
func (p *Processor) boundary(text string, start, end int) int {
	min := start + (end-start)/2
	window := text[start:end]

	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 && start+i > min {
			return start + i
		}
	}

	return end
}
