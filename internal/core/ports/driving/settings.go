package driving

import "github.com/custodia-labs/askdocs/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings: stored values over defaults, with API
	// keys taken from the environment when not stored.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the answer synthesizer.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the current settings can start the service.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
