package driven

import "context"

// LLMService sends a composed prompt to a hosted generative model and
// returns the generated text. Adapters surface transport and service
// failures as errors; the never-throw policy at the query boundary is the
// orchestrator's responsibility, not the adapter's.
//
// Implementations may include:
//   - watsonx.ai (ibm/granite-13b-chat-v2)
type LLMService interface {
	// Generate produces a text completion from a prompt,
	// trimmed of leading and trailing whitespace.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// GenerateOptions configures the fixed decoding parameters.
type GenerateOptions struct {
	// MaxNewTokens is the maximum output length in tokens.
	MaxNewTokens int

	// Temperature controls sampling randomness.
	Temperature float64

	// TopP is the nucleus sampling threshold.
	TopP float64

	// RepetitionPenalty discourages repeated output tokens.
	RepetitionPenalty float64
}
