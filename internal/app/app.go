// Package app wires configuration, model backends, the persisted index and
// the core services together. Driving adapters receive the result.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/ai"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/core/services"
	"github.com/custodia-labs/askdocs/internal/logger"
	"github.com/custodia-labs/askdocs/internal/normalisers"
	"github.com/custodia-labs/askdocs/internal/postprocessors"
)

// Options select what a command needs from the composition root.
type Options struct {
	// ConfigDir holds config.toml and the prompts directory. Empty uses ~/.askdocs.
	ConfigDir string

	// IndexPath overrides the configured index directory.
	IndexPath string

	// CreateIndex starts with an empty index when none exists.
	CreateIndex bool

	// ForRebuild opens an index built with other settings so it can be replaced.
	ForRebuild bool

	// WithLLM builds the answer synthesizer. Commands that never answer skip it.
	WithLLM bool
}

// App holds the services a driving adapter runs against.
// Fields are nil when the options did not ask for them.
type App struct {
	Settings  domain.Settings
	Query     driving.QueryService
	Retrieval driving.RetrievalService
	Ingest    driving.IngestService
	Rebuild   driving.RebuildService
	Index     driving.IndexService

	closers []func() error
}

// NewSettingsService opens the config store in configDir and returns the
// settings service reading it.
func NewSettingsService(configDir, indexPath string) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("%w: open config: %w", domain.ErrConfiguration, err)
	}
	svc := services.NewSettingsService(store)
	if indexPath != "" {
		svc.SetIndexPath(indexPath)
	}
	return svc, nil
}

// New loads settings, builds the model backends, opens the index and
// constructs the services. Every failure before serving is reported here.
func New(ctx context.Context, opts Options) (*App, error) {
	settingsService, err := NewSettingsService(opts.ConfigDir, opts.IndexPath)
	if err != nil {
		return nil, err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}
	if opts.CreateIndex || opts.ForRebuild {
		settings.Index.CreateIfMissing = true
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	a := &App{Settings: *settings}
	if err := a.build(ctx, opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts Options) error {
	settings := a.Settings

	backends, err := ai.NewServices(ctx, settings, opts.WithLLM)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, backends.Close)

	store, err := sqlite.Open(ctx, settings.Index.Path, sqlite.Options{
		CreateIfMissing: settings.Index.CreateIfMissing,
	})
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	embedder := backends.EmbeddingService
	identity := settings.Identity(embedder.ModelName(), embedder.Dimensions())
	handle, err := services.OpenIndex(ctx, store, flat.Factory, identity, services.OpenOptions{
		AllowMismatch: opts.ForRebuild,
	})
	if err != nil {
		return err
	}

	pipeline, err := postprocessors.BuildPipeline(domain.PipelineConfigFor(settings.Chunking))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	registry := normalisers.NewDefaultRegistry()
	ingestCfg := services.IngestConfig{
		Deduplicate:    settings.Ingest.Deduplicate,
		MaxUploadBytes: settings.Ingest.MaxUploadBytes,
	}

	retrieval := services.NewRetrievalService(handle, embedder, settings.Retrieval.TopK)
	a.Index = handle
	a.Retrieval = retrieval
	a.Ingest = services.NewIngestService(handle, registry, pipeline, embedder, ingestCfg)
	a.Rebuild = services.NewRebuildService(handle, registry, pipeline, embedder, identity, ingestCfg)

	if backends.LLMService != nil {
		prompts, err := newPromptStore(opts.ConfigDir)
		if err != nil {
			return err
		}
		a.Query = services.NewQueryService(retrieval, backends.LLMService, prompts, services.QueryConfig{
			MaxContextChars: settings.Retrieval.MaxContextChars,
			Generate: driven.GenerateOptions{
				MaxTokens:   settings.LLM.MaxTokens,
				Temperature: settings.LLM.Temperature,
			},
		})
	}

	logger.Debug("app: index %s, %d entries, top_k %d", settings.Index.Path, handle.Info().Count, settings.Retrieval.TopK)
	return nil
}

// newPromptStore keeps prompts next to config.toml.
func newPromptStore(configDir string) (*file.PromptStore, error) {
	dir := ""
	if configDir != "" {
		dir = filepath.Join(configDir, "prompts")
	}
	prompts, err := file.NewPromptStore(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: prompts: %w", domain.ErrConfiguration, err)
	}
	return prompts, nil
}

// Close releases the index store and model backends in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
