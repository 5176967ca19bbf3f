// Package pdf provides a document loader for PDF files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader reads PDF files into page-level text records.
type Loader struct{}

// New creates a new PDF loader.
func New() *Loader {
	return &Loader{}
}

// Load reads the PDF at path and extracts the text of every page,
// preserving page order. A missing file maps to domain.ErrMissingInput.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	if path == "" {
		return nil, domain.ErrInvalidInput
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingInput, path)
		}
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing pdf: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}

	pages := make([]domain.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("extracting text from page %d: %w", i, err)
		}

		pages = append(pages, domain.Page{Number: i, Content: text})
	}

	return &domain.Document{
		ID:       uuid.New().String(),
		URI:      path,
		Title:    extractTitle(path),
		Pages:    pages,
		LoadedAt: time.Now().UTC(),
	}, nil
}

// extractTitle derives a human-readable title from a file path.
func extractTitle(path string) string {
	filename := filepath.Base(path)

	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
