package driven

import (
	"context"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
)

// DocumentLoader reads a source file and produces page-level text records,
// preserving page order.
//
// Implementations may include:
//   - PDF extraction (unipdf)
//   - plain text (one page per file), used in tests
type DocumentLoader interface {
	// Load reads the document at path. Page order follows the source.
	Load(ctx context.Context, path string) (*domain.Document, error)
}
