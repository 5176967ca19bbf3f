package jsonl

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestAppend_WritesOneLinePerInteraction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.jsonl")
	log := New(path)

	ts := time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)
	require.NoError(t, log.Append(context.Background(), domain.Interaction{
		Timestamp: ts,
		Query:     "Who is eligible for PM-KISAN?",
		Context:   []string{"All landholding farmer families are eligible."},
		Response:  "Landholding farmer families are eligible for the scheme.",
	}))
	require.NoError(t, log.Append(context.Background(), domain.Interaction{
		Timestamp: ts.Add(time.Minute),
		Query:     "How much is paid per year?",
		Context:   []string{"Rs. 6000 per year in three installments."},
		Response:  "Rs. 6000 per year, paid in three installments.",
	}))

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	var first record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "2026-08-23T10:30:00Z", first.Timestamp)
	assert.Equal(t, "Who is eligible for PM-KISAN?", first.UserQuery)
	assert.Equal(t, []string{"All landholding farmer families are eligible."}, first.RetrievedContext)
	assert.Equal(t, "Landholding farmer families are eligible for the scheme.", first.AgentResponse)
}

func TestAppend_FieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.jsonl")
	log := New(path)

	require.NoError(t, log.Append(context.Background(), domain.Interaction{
		Timestamp: time.Now(),
		Query:     "q",
		Response:  "r",
	}))

	line := readLines(t, path)[0]
	for _, key := range []string{`"timestamp"`, `"user_query"`, `"retrieved_context"`, `"agent_response"`} {
		assert.Contains(t, line, key)
	}
}

func TestAppend_EmptyContextIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.jsonl")
	log := New(path)

	require.NoError(t, log.Append(context.Background(), domain.Interaction{
		Timestamp: time.Now(),
		Query:     "q",
		Context:   nil,
		Response:  "r",
	}))

	line := readLines(t, path)[0]
	assert.Contains(t, line, `"retrieved_context":[]`)
	assert.NotContains(t, line, "null")
}

func TestAppend_TimestampNormalizedToUTC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interactions.jsonl")
	log := New(path)

	ist := time.FixedZone("IST", 5*3600+1800)
	require.NoError(t, log.Append(context.Background(), domain.Interaction{
		Timestamp: time.Date(2026, 8, 23, 16, 0, 0, 0, ist),
		Query:     "q",
		Response:  "r",
	}))

	var rec record
	require.NoError(t, json.Unmarshal([]byte(readLines(t, path)[0]), &rec))
	assert.Equal(t, "2026-08-23T10:30:00Z", rec.Timestamp)
}

func TestAppend_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs", "interactions.jsonl")
	log := New(path)

	require.NoError(t, log.Append(context.Background(), domain.Interaction{
		Timestamp: time.Now(),
		Query:     "q",
		Response:  "r",
	}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestNew_DefaultPath(t *testing.T) {
	log := New("")
	assert.Equal(t, DefaultLogPath, log.Path())
}
