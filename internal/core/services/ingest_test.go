package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driven"
)

type fakeLoader struct {
	doc *domain.Document
	err error
}

func (f *fakeLoader) Load(_ context.Context, path string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.doc.URI = path
	return f.doc, nil
}

// lineSplitter is a trivial post-processor that turns each page line into
// one chunk, standing in for the real chunker.
type lineSplitter struct{}

func (lineSplitter) Name() string { return "line-splitter" }

func (lineSplitter) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, page := range doc.Pages {
		for _, line := range strings.Split(page.Content, "\n") {
			chunks = append(chunks, domain.Chunk{
				ID:         fmt.Sprintf("chunk-%d", len(chunks)),
				DocumentID: doc.ID,
				Content:    line,
				Page:       page.Number,
				Position:   len(chunks),
			})
		}
	}
	return chunks, nil
}

type failingProcessor struct{}

func (failingProcessor) Name() string { return "failing" }

func (failingProcessor) Process(context.Context, *domain.Document, []domain.Chunk) ([]domain.Chunk, error) {
	return nil, errors.New("boom")
}

type recordingIndex struct {
	fakeIndex
	rebuilt    [][]domain.Chunk
	rebuildErr error
}

func (r *recordingIndex) Rebuild(_ context.Context, chunks []domain.Chunk) error {
	if r.rebuildErr != nil {
		return r.rebuildErr
	}
	r.rebuilt = append(r.rebuilt, chunks)
	return nil
}

func twoPageDoc() *domain.Document {
	return &domain.Document{
		ID:    "doc-1",
		Title: "pm kisan rules",
		Pages: []domain.Page{
			{Number: 1, Content: "eligibility\ninstallments"},
			{Number: 2, Content: "exclusions"},
		},
	}
}

func TestIngest_Pipeline(t *testing.T) {
	idx := &recordingIndex{}
	svc := NewIngestService(
		"data/pm_kisan_rules.pdf",
		&fakeLoader{doc: twoPageDoc()},
		[]driven.PostProcessor{lineSplitter{}},
		&fakeEmbedder{vector: []float32{0.6, 0.8}},
		idx,
	)

	report, err := svc.Ingest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, 2, report.Dimensions)
	assert.Equal(t, "fake-embedder", report.Model)

	require.Len(t, idx.rebuilt, 1)
	chunks := idx.rebuilt[0]
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Len(t, c.Embedding, 2, "every persisted chunk carries an embedding")
	}
	assert.Equal(t, "eligibility", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, "exclusions", chunks[2].Content)
	assert.Equal(t, 2, chunks[2].Page)
}

func TestIngest_MissingSource(t *testing.T) {
	svc := NewIngestService(
		"data/nope.pdf",
		&fakeLoader{err: fmt.Errorf("%w: data/nope.pdf", domain.ErrMissingInput)},
		[]driven.PostProcessor{lineSplitter{}},
		&fakeEmbedder{vector: []float32{1}},
		&recordingIndex{},
	)

	_, err := svc.Ingest(context.Background())
	assert.ErrorIs(t, err, domain.ErrMissingInput)
}

func TestIngest_ProcessorFailureAborts(t *testing.T) {
	idx := &recordingIndex{}
	svc := NewIngestService(
		"data/pm_kisan_rules.pdf",
		&fakeLoader{doc: twoPageDoc()},
		[]driven.PostProcessor{failingProcessor{}},
		&fakeEmbedder{vector: []float32{1}},
		idx,
	)

	_, err := svc.Ingest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Empty(t, idx.rebuilt, "no rebuild after a pipeline failure")
}

func TestIngest_EmptyDocument(t *testing.T) {
	svc := NewIngestService(
		"data/pm_kisan_rules.pdf",
		&fakeLoader{doc: &domain.Document{ID: "doc-1", Title: "empty"}},
		[]driven.PostProcessor{lineSplitter{}},
		&fakeEmbedder{vector: []float32{1}},
		&recordingIndex{},
	)

	_, err := svc.Ingest(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_EmbeddingFailureAborts(t *testing.T) {
	idx := &recordingIndex{}
	svc := NewIngestService(
		"data/pm_kisan_rules.pdf",
		&fakeLoader{doc: twoPageDoc()},
		[]driven.PostProcessor{lineSplitter{}},
		&fakeEmbedder{err: errors.New("rate limited")},
		idx,
	)

	_, err := svc.Ingest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Empty(t, idx.rebuilt)
}

func TestIngest_RebuildFailure(t *testing.T) {
	svc := NewIngestService(
		"data/pm_kisan_rules.pdf",
		&fakeLoader{doc: twoPageDoc()},
		[]driven.PostProcessor{lineSplitter{}},
		&fakeEmbedder{vector: []float32{1}},
		&recordingIndex{rebuildErr: errors.New("disk full")},
	)

	_, err := svc.Ingest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestIngest_Idempotent(t *testing.T) {
	idx := &recordingIndex{}
	svc := NewIngestService(
		"data/pm_kisan_rules.pdf",
		&fakeLoader{doc: twoPageDoc()},
		[]driven.PostProcessor{lineSplitter{}},
		&fakeEmbedder{vector: []float32{1}},
		idx,
	)

	first, err := svc.Ingest(context.Background())
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Chunks, second.Chunks)
	require.Len(t, idx.rebuilt, 2)
	for i := range idx.rebuilt[0] {
		assert.Equal(t, idx.rebuilt[0][i].Content, idx.rebuilt[1][i].Content)
	}
}
