// Package file loads the sahay configuration from a TOML file.
//
// Every field has a working default, so running without a config file is
// fully supported. Credentials are never read from the file; they come from
// the environment (optionally seeded via a .env file at startup).
package file

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
)

// Environment variables holding watsonx.ai credentials.
const (
	APIKeyEnv    = "WATSONX_API_KEY"
	ProjectIDEnv = "WATSONX_PROJECT_ID"
)

// Config is the full sahay configuration tree.
type Config struct {
	Document  DocumentConfig  `toml:"document"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	LLM       LLMConfig       `toml:"llm"`
	Log       LogConfig       `toml:"log"`
}

// DocumentConfig points at the source PDF.
type DocumentConfig struct {
	Path string `toml:"path"`
}

// ChunkingConfig controls how page text is split into chunks.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// EmbeddingConfig selects the embedding provider and model.
type EmbeddingConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
}

// IndexConfig locates the persisted vector index.
type IndexConfig struct {
	Dir string `toml:"dir"`
}

// RetrievalConfig controls how many chunks are fetched per question.
type RetrievalConfig struct {
	TopK int `toml:"top_k"`
}

// LLMConfig holds the generation model and sampling parameters.
type LLMConfig struct {
	Model             string  `toml:"model"`
	MaxNewTokens      int     `toml:"max_new_tokens"`
	Temperature       float64 `toml:"temperature"`
	TopP              float64 `toml:"top_p"`
	RepetitionPenalty float64 `toml:"repetition_penalty"`
}

// LogConfig locates the interaction log.
type LogConfig struct {
	Path string `toml:"path"`
}

// Credentials are the watsonx.ai API key and project, sourced from the
// environment rather than the config file.
type Credentials struct {
	APIKey    string
	ProjectID string
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Document: DocumentConfig{
			Path: "data/pm_kisan_rules.pdf",
		},
		Chunking: ChunkingConfig{
			Size:    1000,
			Overlap: 150,
		},
		Embedding: EmbeddingConfig{
			Provider: "watsonx",
		},
		Index: IndexConfig{
			Dir: "data/vector_db",
		},
		Retrieval: RetrievalConfig{
			TopK: 3,
		},
		LLM: LLMConfig{
			MaxNewTokens:      512,
			Temperature:       0.7,
			TopP:              0.9,
			RepetitionPenalty: 1.1,
		},
		Log: LogConfig{
			Path: "logs/interactions.jsonl",
		},
	}
}

// Load reads the config file at path and overlays it on the defaults.
// A missing file is not an error; the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive", domain.ErrInvalidInput)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be in [0, size)", domain.ErrInvalidInput)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", domain.ErrInvalidInput)
	}
	switch c.Embedding.Provider {
	case "watsonx", "openai":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, c.Embedding.Provider)
	}
	return nil
}

// LoadCredentials reads watsonx.ai credentials from the environment.
func LoadCredentials() (Credentials, error) {
	creds := Credentials{
		APIKey:    os.Getenv(APIKeyEnv),
		ProjectID: os.Getenv(ProjectIDEnv),
	}
	if creds.APIKey == "" || creds.ProjectID == "" {
		return Credentials{}, fmt.Errorf("%w: set %s and %s", domain.ErrMissingCredentials, APIKeyEnv, ProjectIDEnv)
	}
	return creds, nil
}
