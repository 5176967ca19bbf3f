package cli

import (
	"context"
	"fmt"

	configfile "github.com/sahay-labs/sahay-cli/internal/adapters/driven/config/file"
	"github.com/sahay-labs/sahay-cli/internal/adapters/driven/index/sqlite"
	"github.com/sahay-labs/sahay-cli/internal/adapters/driven/interactionlog/jsonl"
	"github.com/sahay-labs/sahay-cli/internal/adapters/driven/openai"
	"github.com/sahay-labs/sahay-cli/internal/adapters/driven/watsonx"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driven"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driving"
	"github.com/sahay-labs/sahay-cli/internal/core/services"
	"github.com/sahay-labs/sahay-cli/internal/loaders/pdf"
	"github.com/sahay-labs/sahay-cli/internal/postprocessors/chunker"
)

// Injected services. Commands build them on first use through the wiring
// helpers below; tests replace them with mocks.
var (
	ingestService driving.IngestService
	askService    driving.AskService
)

func loadConfig() (configfile.Config, error) {
	return configfile.Load(configPath)
}

// buildEmbedder constructs the configured embedding provider. Watsonx and
// OpenAI share one contract: normalised vectors, fixed model per index.
func buildEmbedder(cfg configfile.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			Model: cfg.Embedding.Model,
		})
	case "watsonx", "":
		creds, err := configfile.LoadCredentials()
		if err != nil {
			return nil, err
		}
		return watsonx.NewEmbeddingService(watsonx.EmbeddingConfig{
			APIKey:    creds.APIKey,
			ProjectID: creds.ProjectID,
			Model:     cfg.Embedding.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildIngestService(cfg configfile.Config) (driving.IngestService, error) {
	if ingestService != nil {
		return ingestService, nil
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	index := sqlite.New(cfg.Index.Dir, embedder.ModelName(), embedder.Dimensions())
	processors := []driven.PostProcessor{
		chunker.New(
			chunker.WithChunkSize(cfg.Chunking.Size),
			chunker.WithOverlap(cfg.Chunking.Overlap),
		),
	}

	return services.NewIngestService(
		cfg.Document.Path,
		pdf.New(),
		processors,
		embedder,
		index,
	), nil
}

func buildAskService(cfg configfile.Config) (driving.AskService, error) {
	if askService != nil {
		return askService, nil
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	creds, err := configfile.LoadCredentials()
	if err != nil {
		return nil, err
	}
	llm, err := watsonx.NewLLMService(watsonx.LLMConfig{
		APIKey:    creds.APIKey,
		ProjectID: creds.ProjectID,
		Model:     cfg.LLM.Model,
	})
	if err != nil {
		return nil, err
	}

	openIndex := func(ctx context.Context) (driven.VectorIndex, error) {
		index := sqlite.New(cfg.Index.Dir, embedder.ModelName(), embedder.Dimensions())
		if err := index.Load(ctx); err != nil {
			return nil, err
		}
		return index, nil
	}

	return services.NewAskService(
		openIndex,
		embedder,
		llm,
		jsonl.New(cfg.Log.Path),
		cfg.Retrieval.TopK,
		driven.GenerateOptions{
			MaxNewTokens:      cfg.LLM.MaxNewTokens,
			Temperature:       cfg.LLM.Temperature,
			TopP:              cfg.LLM.TopP,
			RepetitionPenalty: cfg.LLM.RepetitionPenalty,
		},
	), nil
}
