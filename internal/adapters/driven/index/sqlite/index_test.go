package sqlite

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
)

const testModel = "ibm/slate-30m-english-rtrvr"

// axisChunk builds a unit-vector chunk pointing along one of three axes.
func axisChunk(position, axis int, content string) domain.Chunk {
	embedding := make([]float32, 3)
	embedding[axis] = 1
	return domain.Chunk{
		ID:         fmt.Sprintf("chunk-%d", position),
		DocumentID: "doc-1",
		Content:    content,
		Page:       1 + position/2,
		Position:   position,
		Embedding:  embedding,
	}
}

func buildIndex(t *testing.T, dir string, chunks []domain.Chunk) *Index {
	t.Helper()

	idx := New(dir, testModel, 3)
	require.NoError(t, idx.Rebuild(context.Background(), chunks))
	require.NoError(t, idx.Load(context.Background()))
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestRebuildAndSearch_RoundTrip(t *testing.T) {
	chunks := []domain.Chunk{
		axisChunk(0, 0, "eligibility rules"),
		axisChunk(1, 1, "installment schedule"),
		axisChunk(2, 2, "exclusion criteria"),
	}
	idx := buildIndex(t, t.TempDir(), chunks)

	hits, err := idx.Search(context.Background(), []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "installment schedule", hits[0].Chunk.Content)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, 2, hits[0].Chunk.Page)
	assert.Equal(t, 1, hits[0].Chunk.Position)

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSearch_OrderedByDescendingSimilarity(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "a", DocumentID: "d", Content: "far", Page: 1, Position: 0, Embedding: []float32{1, 0, 0}},
		{ID: "b", DocumentID: "d", Content: "near", Page: 1, Position: 1, Embedding: []float32{0, 0.6, 0.8}},
		{ID: "c", DocumentID: "d", Content: "nearest", Page: 1, Position: 2, Embedding: []float32{0, 0, 1}},
	}
	idx := buildIndex(t, t.TempDir(), chunks)

	hits, err := idx.Search(context.Background(), []float32{0, 0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2, "at most k results")

	assert.Equal(t, "nearest", hits[0].Chunk.Content)
	assert.Equal(t, "near", hits[1].Chunk.Content)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	chunks := []domain.Chunk{
		axisChunk(0, 1, "earlier"),
		axisChunk(1, 1, "later"),
		axisChunk(2, 0, "other"),
	}
	idx := buildIndex(t, t.TempDir(), chunks)

	hits, err := idx.Search(context.Background(), []float32{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "earlier", hits[0].Chunk.Content, "earlier-indexed chunk wins ties")
	assert.Equal(t, "later", hits[1].Chunk.Content)
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx := buildIndex(t, t.TempDir(), nil)

	hits, err := idx.Search(context.Background(), []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits, "empty index returns an empty slice, not an error")
}

func TestSearch_SameResultsAfterReload(t *testing.T) {
	dir := t.TempDir()
	chunks := []domain.Chunk{
		axisChunk(0, 0, "alpha"),
		axisChunk(1, 1, "beta"),
		axisChunk(2, 2, "gamma"),
	}
	idx := buildIndex(t, dir, chunks)

	query := []float32{0.1, 0.7, 0.2}
	before, err := idx.Search(context.Background(), query, 3)
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	reloaded := New(dir, testModel, 3)
	require.NoError(t, reloaded.Load(context.Background()))
	defer reloaded.Close()

	after, err := reloaded.Search(context.Background(), query, 3)
	require.NoError(t, err)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Chunk.ID, after[i].Chunk.ID)
		assert.InDelta(t, before[i].Similarity, after[i].Similarity, 1e-9)
	}
}

func TestRebuild_OverwritesPriorIndex(t *testing.T) {
	dir := t.TempDir()
	idx := buildIndex(t, dir, []domain.Chunk{
		axisChunk(0, 0, "old content"),
		axisChunk(1, 1, "more old content"),
	})
	require.NoError(t, idx.Close())

	fresh := New(dir, testModel, 3)
	require.NoError(t, fresh.Rebuild(context.Background(), []domain.Chunk{
		axisChunk(0, 2, "new content"),
	}))
	require.NoError(t, fresh.Load(context.Background()))
	defer fresh.Close()

	count, err := fresh.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count, "rebuild replaces the index wholesale")
}

func TestRebuild_RejectsWrongDimensions(t *testing.T) {
	dir := t.TempDir()
	idx := New(dir, testModel, 3)

	err := idx.Rebuild(context.Background(), []domain.Chunk{
		{ID: "a", DocumentID: "d", Content: "bad", Position: 0, Embedding: []float32{1, 0}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")

	// The failed build must not leave any index behind.
	_, statErr := os.Stat(idx.Path())
	assert.True(t, os.IsNotExist(statErr), "no partial index may be visible after a failed rebuild")
}

func TestRebuild_FailureKeepsPriorIndex(t *testing.T) {
	dir := t.TempDir()
	idx := buildIndex(t, dir, []domain.Chunk{axisChunk(0, 0, "kept")})
	require.NoError(t, idx.Close())

	again := New(dir, testModel, 3)
	err := again.Rebuild(context.Background(), []domain.Chunk{
		{ID: "a", DocumentID: "d", Content: "bad", Position: 0, Embedding: []float32{1}},
	})
	require.Error(t, err)

	// The old index still loads and serves.
	require.NoError(t, again.Load(context.Background()))
	defer again.Close()

	count, err := again.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLoad_MissingIndex(t *testing.T) {
	idx := New(t.TempDir(), testModel, 3)

	err := idx.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestLoad_ModelMismatch(t *testing.T) {
	dir := t.TempDir()
	idx := buildIndex(t, dir, []domain.Chunk{axisChunk(0, 0, "text")})
	require.NoError(t, idx.Close())

	other := New(dir, "text-embedding-3-small", 3)
	err := other.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexIncompatible)
}

func TestLoad_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	idx := buildIndex(t, dir, []domain.Chunk{axisChunk(0, 0, "text")})
	require.NoError(t, idx.Close())

	other := New(dir, testModel, 384)
	err := other.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexIncompatible)
}

func TestSearch_NotLoaded(t *testing.T) {
	idx := New(t.TempDir(), testModel, 3)

	_, err := idx.Search(context.Background(), []float32{0, 1, 0}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestSearch_WrongQueryDimensions(t *testing.T) {
	idx := buildIndex(t, t.TempDir(), []domain.Chunk{axisChunk(0, 0, "text")})

	_, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFloat32BytesRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 0, 3.14159}

	got := bytesToFloat32Slice(float32SliceToBytes(vec))
	require.Len(t, got, len(vec))
	for i := range vec {
		assert.Equal(t, vec[i], got[i])
	}
}
