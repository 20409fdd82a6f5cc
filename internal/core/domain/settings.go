package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a service provider for embeddings or answer synthesis.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in deterministic feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderHugot is a local ONNX sentence-transformer run in-process.
	AIProviderHugot AIProvider = "hugot"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGroq is Groq's OpenAI-compatible cloud API.
	AIProviderGroq AIProvider = "groq"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google's Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderHugot, AIProviderOllama, AIProviderOpenAI,
		AIProviderGroq, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// SupportsEmbedding returns true if the provider can embed text.
func (p AIProvider) SupportsEmbedding() bool {
	switch p {
	case AIProviderHashing, AIProviderHugot, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// SupportsGeneration returns true if the provider can synthesize answers.
func (p AIProvider) SupportsGeneration() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGroq, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOpenAI, AIProviderGroq, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHugot || p == AIProviderHashing
}

// APIKeyEnv returns the environment variable consulted for the provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderGroq:
		return "GROQ_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Feature hashing (built-in, offline)"
	case AIProviderHugot:
		return "Hugot ONNX (local)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGroq:
		return "Groq (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size. Zero uses the model's known size.
	Dimensions int

	// QueryPrefix is prepended to questions before embedding.
	// Retrieval models such as BGE expect an instruction on the query side only.
	QueryPrefix string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbedding() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds answer synthesizer configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key.
	APIKey string

	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.SupportsGeneration() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds persisted index configuration.
type IndexSettings struct {
	// Path is the directory holding the persisted index.
	Path string

	// CreateIfMissing allows starting with an empty index when none exists.
	CreateIfMissing bool

	// Metric is the distance metric for new indexes.
	Metric DistanceMetric
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int
}

// Validate checks that chunking can make progress.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrConfiguration, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)",
			ErrConfiguration, c.Overlap, c.Size)
	}
	return nil
}

// RetrievalSettings holds query-time retrieval configuration.
type RetrievalSettings struct {
	// TopK is the number of passages retrieved per question.
	TopK int

	// MaxContextChars bounds the context placed in the prompt.
	MaxContextChars int
}

// IngestSettings holds ingestion configuration.
type IngestSettings struct {
	// Deduplicate skips documents whose content is already indexed.
	// Off by default: ingesting the same file twice appends duplicate entries.
	Deduplicate bool

	// MaxUploadBytes caps the accepted upload size.
	MaxUploadBytes int64
}

// UpstreamSettings holds the call policy for model backends.
type UpstreamSettings struct {
	// Timeout bounds each call attempt.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts per call. 1 disables retries.
	MaxAttempts int

	// Backoff is the wait before the first retry; it doubles per attempt.
	Backoff time.Duration

	// RatePerSecond limits calls per second. Zero means unlimited.
	RatePerSecond float64
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
}

// Settings holds all application settings.
type Settings struct {
	Index     IndexSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Ingest    IngestSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Upstream  UpstreamSettings
	Server    ServerSettings
}

// DefaultSettings returns settings with sensible defaults.
// Chunking and retrieval defaults follow the 500/50 split with top-4 retrieval.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexSettings{
			Metric: MetricCosine,
		},
		Chunking: ChunkingSettings{
			Size:    500,
			Overlap: 50,
		},
		Retrieval: RetrievalSettings{
			TopK:            4,
			MaxContextChars: 6000,
		},
		Ingest: IngestSettings{
			Deduplicate:    false,
			MaxUploadBytes: 32 << 20,
		},
		Embedding: EmbeddingSettings{
			Provider:    AIProviderHugot,
			Model:       DefaultEmbeddingModels()[AIProviderHugot],
			QueryPrefix: "Represent this sentence for searching relevant passages: ",
		},
		LLM: LLMSettings{
			Provider:  AIProviderGroq,
			Model:     DefaultLLMModels()[AIProviderGroq],
			MaxTokens: 1024,
		},
		Upstream: UpstreamSettings{
			Timeout:     60 * time.Second,
			MaxAttempts: 1,
			Backoff:     500 * time.Millisecond,
		},
		Server: ServerSettings{
			Addr: "127.0.0.1:8000",
		},
	}
}

// Validate checks settings that must hold before the service starts.
func (s Settings) Validate() error {
	if s.Index.Path == "" {
		return fmt.Errorf("%w: index path is not set", ErrConfiguration)
	}
	if !s.Index.Metric.IsValid() {
		return fmt.Errorf("%w: unknown distance metric %q", ErrConfiguration, s.Index.Metric)
	}
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if s.Retrieval.TopK < 1 {
		return fmt.Errorf("%w: retrieval top_k must be at least 1, got %d", ErrConfiguration, s.Retrieval.TopK)
	}
	if s.Retrieval.MaxContextChars < 1 {
		return fmt.Errorf("%w: retrieval max_context_chars must be positive", ErrConfiguration)
	}
	if !s.Embedding.Provider.SupportsEmbedding() {
		return fmt.Errorf("%w: %q is not an embedding provider", ErrConfiguration, s.Embedding.Provider)
	}
	if s.Embedding.Dimensions < 0 {
		return fmt.Errorf("%w: embedding dimensions must not be negative", ErrConfiguration)
	}
	if !s.LLM.Provider.SupportsGeneration() {
		return fmt.Errorf("%w: %q is not an answer provider", ErrConfiguration, s.LLM.Provider)
	}
	if s.Upstream.Timeout <= 0 {
		return fmt.Errorf("%w: upstream timeout must be positive", ErrConfiguration)
	}
	if s.Upstream.MaxAttempts < 1 {
		return fmt.Errorf("%w: upstream max_attempts must be at least 1", ErrConfiguration)
	}
	return nil
}

// Identity returns the index identity for an embedder with the given model and size.
func (s Settings) Identity(model string, dims int) IndexIdentity {
	return IndexIdentity{
		EmbeddingModel: model,
		Dimensions:     dims,
		Metric:         s.Index.Metric,
		ChunkSize:      s.Chunking.Size,
		ChunkOverlap:   s.Chunking.Overlap,
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderHugot,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support answer synthesis.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGroq,
		AIProviderOpenAI,
		AIProviderOllama,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-v1",
		AIProviderHugot:   "BAAI/bge-small-en-v1.5",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGroq:      "llama-3.1-8b-instant",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderGemini:    "gemini-2.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-v1": 384,
		// Local sentence transformers
		"BAAI/bge-small-en-v1.5":                 384,
		"BAAI/bge-base-en-v1.5":                  768,
		"sentence-transformers/all-MiniLM-L6-v2": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so processors can be added without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor returns the pipeline that chunks with the given settings.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": c.Size,
				"overlap":    c.Overlap,
			},
		},
	}
}
