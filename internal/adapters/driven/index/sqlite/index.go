// Package sqlite provides a SQLite-backed persisted vector index.
//
// The index lives in a single database file inside the data directory.
// Rebuilds write to a temporary file and atomically rename it over the
// previous index, so a failed ingestion run never leaves a readable but
// incomplete index behind. Similarity search is an exhaustive inner-product
// scan: the corpus is one document, so approximate structures would buy
// nothing.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sahay-labs/sahay-cli/internal/adapters/driven/index/sqlite/migrations"
	"github.com/sahay-labs/sahay-cli/internal/core/domain"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// IndexFileName is the database file inside the data directory.
const IndexFileName = "index.db"

// Metadata keys stored in index_meta.
const (
	metaEmbeddingModel = "embedding_model"
	metaDimensions     = "dimensions"
	metaCreatedAt      = "created_at"
)

// Index is a persisted vector index over document chunks.
type Index struct {
	db      *sql.DB
	dataDir string
	path    string
	model   string
	dims    int
}

// New creates an index handle for the given data directory, bound to one
// embedding model and dimensionality. No I/O happens until Rebuild or Load.
func New(dataDir, model string, dimensions int) *Index {
	return &Index{
		dataDir: dataDir,
		path:    filepath.Join(dataDir, IndexFileName),
		model:   model,
		dims:    dimensions,
	}
}

// Path returns the index database file path.
func (idx *Index) Path() string {
	return idx.path
}

// Rebuild replaces the whole index with the given chunks. The new index is
// built in a temporary file and swapped in with a rename, overwriting any
// prior index only after the build fully succeeds.
func (idx *Index) Rebuild(ctx context.Context, chunks []domain.Chunk) error {
	for i, chunk := range chunks {
		if len(chunk.Embedding) != idx.dims {
			return fmt.Errorf("chunk %d: embedding has %d dimensions, index expects %d",
				i, len(chunk.Embedding), idx.dims)
		}
	}

	if err := os.MkdirAll(idx.dataDir, 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmpPath := idx.path + ".tmp"
	removeDatabaseFiles(tmpPath)

	db, err := sql.Open("sqlite", tmpPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("opening build database: %w", err)
	}

	if err := idx.build(ctx, db, chunks); err != nil {
		db.Close()
		removeDatabaseFiles(tmpPath)
		return err
	}

	if err := db.Close(); err != nil {
		removeDatabaseFiles(tmpPath)
		return fmt.Errorf("closing build database: %w", err)
	}

	if err := os.Rename(tmpPath, idx.path); err != nil {
		removeDatabaseFiles(tmpPath)
		return fmt.Errorf("swapping index into place: %w", err)
	}

	return nil
}

// build migrates the fresh database and writes metadata plus all chunks
// in a single transaction.
func (idx *Index) build(ctx context.Context, db *sql.DB, chunks []domain.Chunk) error {
	if err := migrate(db, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	meta := map[string]string{
		metaEmbeddingModel: idx.model,
		metaDimensions:     strconv.Itoa(idx.dims),
		metaCreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO index_meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("writing index metadata: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, page, position, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Content,
			chunk.Page, chunk.Position, float32SliceToBytes(chunk.Embedding)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load opens an existing index and validates that it was built with the
// configured embedding model and dimensionality.
func (idx *Index) Load(ctx context.Context) error {
	if _, err := os.Stat(idx.path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: no index at %s (run ingest first)", domain.ErrIndexUnavailable, idx.path)
		}
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	db, err := sql.Open("sqlite", idx.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	model, dims, err := readMeta(ctx, db)
	if err != nil {
		db.Close()
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}

	if model != idx.model || dims != idx.dims {
		db.Close()
		return fmt.Errorf("%w: index built with %s/%d, configured %s/%d",
			domain.ErrIndexIncompatible, model, dims, idx.model, idx.dims)
	}

	idx.db = db
	return nil
}

// Search finds the k nearest chunks to the query vector by inner product.
// Results are ordered by descending similarity; ties keep insertion order.
// An empty index returns an empty slice.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if idx.db == nil {
		return nil, fmt.Errorf("%w: index not loaded", domain.ErrIndexUnavailable)
	}
	if len(query) != idx.dims {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(query), idx.dims)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT id, document_id, content, page, position, embedding
		FROM chunks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
			&chunk.Page, &chunk.Position, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		hits = append(hits, driven.VectorHit{
			Chunk:      chunk,
			Similarity: dotProduct(query, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	// Rows arrive in insertion order; a stable sort keeps that order
	// for equal similarities.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	if hits == nil {
		hits = []driven.VectorHit{}
	}
	return hits, nil
}

// Count returns the number of indexed chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	if idx.db == nil {
		return 0, fmt.Errorf("%w: index not loaded", domain.ErrIndexUnavailable)
	}

	var count int
	row := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (idx *Index) Close() error {
	if idx.db == nil {
		return nil
	}
	err := idx.db.Close()
	idx.db = nil
	return err
}

// readMeta reads the embedding model and dimensionality recorded at build.
func readMeta(ctx context.Context, db *sql.DB) (string, int, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM index_meta`)
	if err != nil {
		return "", 0, fmt.Errorf("reading index metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return "", 0, fmt.Errorf("scanning index metadata: %w", err)
		}
		meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return "", 0, fmt.Errorf("iterating index metadata: %w", err)
	}

	model, ok := meta[metaEmbeddingModel]
	if !ok {
		return "", 0, fmt.Errorf("index metadata missing %s", metaEmbeddingModel)
	}
	dims, err := strconv.Atoi(meta[metaDimensions])
	if err != nil {
		return "", 0, fmt.Errorf("index metadata has invalid %s", metaDimensions)
	}

	return model, dims, nil
}

// migrate runs all pending .up.sql migrations from the embedded filesystem.
func migrate(db *sql.DB, fsys embed.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		version, err := strconv.Atoi(strings.SplitN(name, "_", 2)[0])
		if err != nil {
			return fmt.Errorf("parsing migration version from %s: %w", name, err)
		}
		if version <= currentVersion {
			continue
		}

		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(script)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// removeDatabaseFiles deletes a database file and its journals.
func removeDatabaseFiles(path string) {
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
}

// dotProduct returns the inner product of two vectors. Vectors are
// pre-normalised, so this equals cosine similarity.
func dotProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
