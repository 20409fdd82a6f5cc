package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyIndexPath         = "index.path"
	keyIndexCreate       = "index.create_if_missing"
	keyIndexMetric       = "index.metric"
	keyChunkSize         = "chunking.size"
	keyChunkOverlap      = "chunking.overlap"
	keyTopK              = "retrieval.top_k"
	keyMaxContext        = "retrieval.max_context_chars"
	keyDeduplicate       = "ingest.deduplicate"
	keyMaxUpload         = "ingest.max_upload_bytes"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDims         = "embedding.dimensions"
	keyEmbedQueryPrefix  = "embedding.query_prefix"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyLLMTemperature    = "llm.temperature"
	keyUpstreamTimeout   = "upstream.timeout"
	keyUpstreamAttempts  = "upstream.max_attempts"
	keyUpstreamBackoff   = "upstream.backoff"
	keyUpstreamRate      = "upstream.rate_per_second"
	keyServerAddr        = "server.addr"
	defaultOllamaBaseURL = "http://localhost:11434"
)

// DefaultIndexPath returns ~/.askdocs/index, or a relative "index" directory
// when the home directory is unknown.
func DefaultIndexPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "index"
	}
	return filepath.Join(home, ".askdocs", "index")
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
	indexPath   string
}

// NewSettingsService creates a new settings service.
// API keys missing from the store are read from the process environment.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// SetEnv replaces the environment lookup used for API keys.
func (s *SettingsService) SetEnv(getenv func(string) string) {
	s.getenv = getenv
}

// SetIndexPath overrides the stored index path, e.g. from a --index flag.
func (s *SettingsService) SetIndexPath(path string) {
	s.indexPath = path
}

// Get retrieves current settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	timeout, err := s.getDuration(keyUpstreamTimeout, defaults.Upstream.Timeout)
	if err != nil {
		return nil, err
	}
	backoff, err := s.getDuration(keyUpstreamBackoff, defaults.Upstream.Backoff)
	if err != nil {
		return nil, err
	}

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)

	settings := &domain.Settings{
		Index: domain.IndexSettings{
			Path:            s.getString(keyIndexPath, DefaultIndexPath()),
			CreateIfMissing: s.getBool(keyIndexCreate, defaults.Index.CreateIfMissing),
			Metric:          domain.DistanceMetric(s.getString(keyIndexMetric, defaults.Index.Metric.String())),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:            s.getInt(keyTopK, defaults.Retrieval.TopK),
			MaxContextChars: s.getInt(keyMaxContext, defaults.Retrieval.MaxContextChars),
		},
		Ingest: domain.IngestSettings{
			Deduplicate:    s.getBool(keyDeduplicate, defaults.Ingest.Deduplicate),
			MaxUploadBytes: int64(s.getInt(keyMaxUpload, int(defaults.Ingest.MaxUploadBytes))),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:    embedProvider,
			Model:       s.getString(keyEmbedModel, defaultModel(domain.DefaultEmbeddingModels(), embedProvider, defaults.Embedding.Model)),
			BaseURL:     s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:      s.apiKey(keyEmbedAPIKey, embedProvider),
			Dimensions:  s.configStore.GetInt(keyEmbedDims),
			QueryPrefix: s.getQueryPrefix(embedProvider, defaults.Embedding),
		},
		LLM: domain.LLMSettings{
			Provider:    llmProvider,
			Model:       s.getString(keyLLMModel, defaultModel(domain.DefaultLLMModels(), llmProvider, "")),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.apiKey(keyLLMAPIKey, llmProvider),
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			Temperature: s.configStore.GetFloat(keyLLMTemperature),
		},
		Upstream: domain.UpstreamSettings{
			Timeout:       timeout,
			MaxAttempts:   s.getInt(keyUpstreamAttempts, defaults.Upstream.MaxAttempts),
			Backoff:       backoff,
			RatePerSecond: s.configStore.GetFloat(keyUpstreamRate),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}
	if s.indexPath != "" {
		settings.Index.Path = s.indexPath
	}

	return settings, nil
}

// Save persists settings. API keys are written only when they did not come
// from the environment.
func (s *SettingsService) Save(settings *domain.Settings) error {
	type setting struct {
		key   string
		value any
		what  string
	}
	values := []setting{
		{keyIndexMetric, settings.Index.Metric.String(), "index metric"},
		{keyIndexCreate, settings.Index.CreateIfMissing, "index create_if_missing"},
		{keyChunkSize, settings.Chunking.Size, "chunk size"},
		{keyChunkOverlap, settings.Chunking.Overlap, "chunk overlap"},
		{keyTopK, settings.Retrieval.TopK, "retrieval top_k"},
		{keyMaxContext, settings.Retrieval.MaxContextChars, "retrieval max_context_chars"},
		{keyDeduplicate, settings.Ingest.Deduplicate, "ingest deduplicate"},
		{keyEmbedProvider, settings.Embedding.Provider.String(), "embedding provider"},
		{keyEmbedModel, settings.Embedding.Model, "embedding model"},
		{keyEmbedBaseURL, settings.Embedding.BaseURL, "embedding base_url"},
		{keyLLMProvider, settings.LLM.Provider.String(), "llm provider"},
		{keyLLMModel, settings.LLM.Model, "llm model"},
		{keyLLMBaseURL, settings.LLM.BaseURL, "llm base_url"},
		{keyUpstreamTimeout, settings.Upstream.Timeout.String(), "upstream timeout"},
		{keyUpstreamAttempts, settings.Upstream.MaxAttempts, "upstream max_attempts"},
		{keyUpstreamBackoff, settings.Upstream.Backoff.String(), "upstream backoff"},
	}
	if settings.Index.Path != "" && settings.Index.Path != s.indexPath {
		values = append(values, setting{keyIndexPath, settings.Index.Path, "index path"})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.what, err)
		}
	}

	if err := s.saveAPIKey(keyEmbedAPIKey, settings.Embedding.Provider, settings.Embedding.APIKey); err != nil {
		return fmt.Errorf("save embedding api_key: %w", err)
	}
	if err := s.saveAPIKey(keyLLMAPIKey, settings.LLM.Provider, settings.LLM.APIKey); err != nil {
		return fmt.Errorf("save llm api_key: %w", err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
// Changing the model of a populated index requires a rebuild before it is served again.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrConfiguration, provider)
	}
	if !provider.SupportsEmbedding() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" {
		apiKey = s.getenv(provider.APIKeyEnv())
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s (set %s)", domain.ErrConfiguration, provider, provider.APIKeyEnv())
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the answer synthesizer.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrConfiguration, provider)
	}
	if !provider.SupportsGeneration() {
		return fmt.Errorf("%w: provider %s cannot synthesize answers", domain.ErrConfiguration, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" {
		apiKey = s.getenv(provider.APIKeyEnv())
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s (set %s)", domain.ErrConfiguration, provider, provider.APIKeyEnv())
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the current settings can start the service.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	d := domain.DefaultSettings()
	d.Index.Path = DefaultIndexPath()
	return d
}

// baseURLFor keeps a custom endpoint for Ollama and clears it for cloud providers.
func baseURLFor(provider domain.AIProvider, current string) string {
	switch {
	case provider == domain.AIProviderOllama && current == "":
		return defaultOllamaBaseURL
	case provider == domain.AIProviderOllama:
		return current
	default:
		return ""
	}
}

func defaultModel(models map[domain.AIProvider]string, p domain.AIProvider, fallback string) string {
	if m, ok := models[p]; ok {
		return m
	}
	return fallback
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero distinguishes a stored zero from a missing key.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getDuration accepts Go duration strings ("60s") or whole seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal, nil
	}
	if str, ok := val.(string); ok {
		if str == "" {
			return defaultVal, nil
		}
		d, err := time.ParseDuration(str)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, key, err)
		}
		return d, nil
	}
	if secs := s.configStore.GetInt(key); secs > 0 {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("%w: %s must be a duration such as \"30s\"", domain.ErrConfiguration, key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	// Unknown names are kept so Validate can report them.
	return domain.AIProvider(val)
}

// getQueryPrefix applies the BGE instruction only to the default hugot model
// unless a prefix is stored, including an explicitly empty one.
func (s *SettingsService) getQueryPrefix(p domain.AIProvider, defaults domain.EmbeddingSettings) string {
	if _, exists := s.configStore.Get(keyEmbedQueryPrefix); exists {
		return s.configStore.GetString(keyEmbedQueryPrefix)
	}
	if p == defaults.Provider && s.getString(keyEmbedModel, defaults.Model) == defaults.Model {
		return defaults.QueryPrefix
	}
	return ""
}

func (s *SettingsService) apiKey(key string, p domain.AIProvider) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	if env := p.APIKeyEnv(); env != "" && s.getenv != nil {
		return s.getenv(env)
	}
	return ""
}

func (s *SettingsService) saveAPIKey(key string, p domain.AIProvider, apiKey string) error {
	if apiKey == "" {
		return nil
	}
	if env := p.APIKeyEnv(); env != "" && s.getenv != nil && s.getenv(env) == apiKey {
		return nil
	}
	return s.configStore.Set(key, apiKey)
}
