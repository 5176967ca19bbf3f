package watsonx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sahay-labs/sahay-cli/internal/core/domain"
	"github.com/sahay-labs/sahay-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultGenerationModel   = "ibm/granite-13b-chat-v2"
	DefaultGenerationTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the watsonx generation service.
type LLMConfig struct {
	// APIKey is the IBM Cloud API key (required).
	APIKey string

	// ProjectID is the watsonx project the requests are billed to (required).
	ProjectID string

	// BaseURL is the regional API base URL (default: us-south).
	BaseURL string

	// AuthURL is the IAM token endpoint. Overridable for tests.
	AuthURL string

	// Model is the generation model to use (default: ibm/granite-13b-chat-v2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService generates text using the watsonx.ai text generation API.
type LLMService struct {
	client    *http.Client
	tokens    *tokenSource
	baseURL   string
	projectID string
	model     string
}

// generationRequest is the watsonx /ml/v1/text/generation request format.
type generationRequest struct {
	ModelID    string               `json:"model_id"`
	ProjectID  string               `json:"project_id"`
	Input      string               `json:"input"`
	Parameters generationParameters `json:"parameters"`
}

// generationParameters carries the decoding parameters.
type generationParameters struct {
	DecodingMethod    string  `json:"decoding_method"`
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature,omitempty"`
	TopP              float64 `json:"top_p,omitempty"`
	RepetitionPenalty float64 `json:"repetition_penalty,omitempty"`
}

// generationResponse is the watsonx /ml/v1/text/generation response format.
type generationResponse struct {
	Results []struct {
		GeneratedText       string `json:"generated_text"`
		GeneratedTokenCount int    `json:"generated_token_count"`
		StopReason          string `json:"stop_reason"`
	} `json:"results"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// NewLLMService creates a new watsonx generation service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" || cfg.ProjectID == "" {
		return nil, fmt.Errorf("watsonx: %w", domain.ErrMissingCredentials)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGenerationModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultGenerationTimeout
	}

	client := &http.Client{Timeout: cfg.Timeout}

	return &LLMService{
		client:    client,
		tokens:    newTokenSource(client, cfg.AuthURL, cfg.APIKey),
		baseURL:   cfg.BaseURL,
		projectID: cfg.ProjectID,
		model:     cfg.Model,
	}, nil
}

// Generate produces a text completion for the prompt using sampling
// decode with the given parameters. The result is trimmed of leading and
// trailing whitespace.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	reqBody := generationRequest{
		ModelID:   s.model,
		ProjectID: s.projectID,
		Input:     prompt,
		Parameters: generationParameters{
			DecodingMethod:    "sample",
			MaxNewTokens:      opts.MaxNewTokens,
			Temperature:       opts.Temperature,
			TopP:              opts.TopP,
			RepetitionPenalty: opts.RepetitionPenalty,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/ml/v1/text/generation?version="+apiVersion,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var genResp generationResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(genResp.Errors) > 0 {
		return "", fmt.Errorf("watsonx error %s: %s", genResp.Errors[0].Code, genResp.Errors[0].Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("watsonx error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(genResp.Results) == 0 {
		return "", fmt.Errorf("watsonx: no generation result")
	}

	return strings.TrimSpace(genResp.Results[0].GeneratedText), nil
}

// ModelName returns the name of the generation model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
