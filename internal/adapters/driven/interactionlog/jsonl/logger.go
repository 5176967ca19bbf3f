// Package jsonl appends chat interactions to a JSON Lines file.
//
// Each call to Append writes exactly one JSON object on its own line, so the
// log can be tailed or replayed with standard line-oriented tooling. The file
// is opened and closed per record, which keeps writes durable across process
// restarts at the cost of a little syscall overhead. For a single-user CLI
// that trade is fine.
package jsonl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
)

// DefaultLogPath is where interactions land when no path is configured.
const DefaultLogPath = "logs/interactions.jsonl"

// record is the on-disk shape of a single interaction.
type record struct {
	Timestamp        string   `json:"timestamp"`
	UserQuery        string   `json:"user_query"`
	RetrievedContext []string `json:"retrieved_context"`
	AgentResponse    string   `json:"agent_response"`
}

// Logger appends interaction records to a JSONL file.
type Logger struct {
	path string
}

// New returns a Logger that writes to the given path. The parent directory
// is created on first append, not here.
func New(path string) *Logger {
	if path == "" {
		path = DefaultLogPath
	}
	return &Logger{path: path}
}

// Path returns the log file path.
func (l *Logger) Path() string {
	return l.path
}

// Append writes one interaction as a single JSON line.
func (l *Logger) Append(_ context.Context, interaction domain.Interaction) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	rec := record{
		Timestamp:        interaction.Timestamp.UTC().Format(time.RFC3339),
		UserQuery:        interaction.Query,
		RetrievedContext: interaction.Context,
		AgentResponse:    interaction.Response,
	}
	if rec.RetrievedContext == nil {
		rec.RetrievedContext = []string{}
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding interaction: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening interaction log: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("writing interaction log: %w", err)
	}
	return f.Close()
}
