// Package watsonx provides embedding and LLM service adapters for the IBM
// watsonx.ai REST API. Authentication uses short-lived IAM bearer tokens
// exchanged from an API key; every request is scoped to a project ID.
package watsonx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL          = "https://us-south.ml.cloud.ibm.com"
	DefaultEmbeddingModel   = "ibm/slate-30m-english-rtrvr"
	DefaultEmbeddingTimeout = 60 * time.Second

	// apiVersion is the watsonx.ai API date version sent with every call.
	apiVersion = "2024-05-02"
)

// Model dimensions for watsonx embedding models.
var modelDimensions = map[string]int{
	"ibm/slate-30m-english-rtrvr":  384,
	"ibm/slate-125m-english-rtrvr": 768,
}

// EmbeddingConfig holds configuration for the watsonx embedding service.
type EmbeddingConfig struct {
	// APIKey is the IBM Cloud API key (required).
	APIKey string

	// ProjectID is the watsonx project the requests are billed to (required).
	ProjectID string

	// BaseURL is the regional API base URL (default: us-south).
	BaseURL string

	// AuthURL is the IAM token endpoint. Overridable for tests.
	AuthURL string

	// Model is the embedding model to use (default: ibm/slate-30m-english-rtrvr).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings using the watsonx.ai API.
// Vectors are normalised to unit length before being returned, so inner
// product equals cosine similarity downstream.
type EmbeddingService struct {
	client     *http.Client
	tokens     *tokenSource
	baseURL    string
	projectID  string
	model      string
	dimensions int
}

// embeddingRequest is the watsonx /ml/v1/text/embeddings request format.
type embeddingRequest struct {
	ModelID   string   `json:"model_id"`
	ProjectID string   `json:"project_id"`
	Inputs    []string `json:"inputs"`
}

// embeddingResponse is the watsonx /ml/v1/text/embeddings response format.
type embeddingResponse struct {
	Results []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"results"`
	InputTokenCount int `json:"input_token_count"`
	Errors          []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// NewEmbeddingService creates a new watsonx embedding service.
func NewEmbeddingService(cfg EmbeddingConfig) (*EmbeddingService, error) {
	if cfg.APIKey == "" || cfg.ProjectID == "" {
		return nil, fmt.Errorf("watsonx: %w", domain.ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultEmbeddingModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultEmbeddingTimeout
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = 384 // Default fallback
	}

	client := &http.Client{Timeout: cfg.Timeout}

	return &EmbeddingService{
		client:     client,
		tokens:     newTokenSource(client, cfg.AuthURL, cfg.APIKey),
		baseURL:    cfg.BaseURL,
		projectID:  cfg.ProjectID,
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed generates a normalised vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("watsonx: no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{
		ModelID:   s.model,
		ProjectID: s.projectID,
		Inputs:    texts,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/ml/v1/text/embeddings?version="+apiVersion,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(embedResp.Errors) > 0 {
		return nil, fmt.Errorf("watsonx error %s: %s", embedResp.Errors[0].Code, embedResp.Errors[0].Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watsonx error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(embedResp.Results) != len(texts) {
		return nil, fmt.Errorf("watsonx: expected %d embeddings, got %d", len(texts), len(embedResp.Results))
	}

	embeddings := make([][]float32, len(texts))
	for i, result := range embedResp.Results {
		embeddings[i] = normalise(result.Embedding)
	}

	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// normalise converts a raw vector to a unit-length float32 vector.
// A zero vector is returned unchanged.
func normalise(raw []float64) []float32 {
	var sum float64
	for _, v := range raw {
		sum += v * v
	}

	norm := math.Sqrt(sum)
	out := make([]float32, len(raw))
	for i, v := range raw {
		if norm > 0 {
			out[i] = float32(v / norm)
		}
	}
	return out
}
