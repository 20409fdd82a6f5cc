package driven

import "context"

// LLMService is the answer synthesizer. It completes a prompt and knows
// nothing about retrieval. Backends include Groq and other OpenAI-style
// servers, Anthropic, Gemini and Ollama.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	ModelName() string

	// Ping makes the cheapest request that proves the model answers.
	Ping(ctx context.Context) error
	Close() error
}

// GenerateOptions are per-call sampling limits. Zero values leave the
// backend default in place.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}
