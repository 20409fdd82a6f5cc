package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui"
	"github.com/custodia-labs/askdocs/internal/app"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/normalisers/pdf"
)

// mockQueryService implements driving.QueryService for CLI tests.
type mockQueryService struct {
	answer    *domain.Answer
	err       error
	questions []string
}

func (m *mockQueryService) Answer(_ context.Context, question string) (*domain.Answer, error) {
	m.questions = append(m.questions, question)
	if m.err != nil {
		return nil, m.err
	}
	if m.answer != nil {
		return m.answer, nil
	}
	return &domain.Answer{Text: "I don't know.", NoContext: true}, nil
}

// mockRetrievalService implements driving.RetrievalService for CLI tests.
type mockRetrievalService struct{}

func (m *mockRetrievalService) Retrieve(_ context.Context, question string) (*domain.RetrievalResult, error) {
	return &domain.RetrievalResult{Question: question}, nil
}

// mockIngestService implements driving.IngestService and records uploads.
type mockIngestService struct {
	contents map[string]string
	fail     map[string]error
}

func (m *mockIngestService) Ingest(_ context.Context, upload driving.Upload) (*domain.IngestResult, error) {
	if err := m.fail[upload.Filename]; err != nil {
		return nil, err
	}
	data, err := io.ReadAll(upload.Content)
	if err != nil {
		return nil, err
	}
	if m.contents == nil {
		m.contents = make(map[string]string)
	}
	m.contents[upload.Filename] = string(data)
	return &domain.IngestResult{
		Filename:    upload.Filename,
		ChunksAdded: 2,
		Message:     "Successfully uploaded and processed " + upload.Filename,
	}, nil
}

// mockRebuildService implements driving.RebuildService.
type mockRebuildService struct {
	calls     int
	confirmed bool
	filename  string
}

func (m *mockRebuildService) Rebuild(_ context.Context, upload driving.Upload, confirm bool) (*domain.IngestResult, error) {
	m.calls++
	m.confirmed = confirm
	m.filename = upload.Filename
	return &domain.IngestResult{
		Filename:    upload.Filename,
		ChunksAdded: 5,
		Message:     "Successfully rebuilt the index from " + upload.Filename,
	}, nil
}

// mockIndexService implements driving.IndexService.
type mockIndexService struct {
	info driving.IndexInfo
}

func (m *mockIndexService) Info() driving.IndexInfo {
	return m.info
}

// mockSettingsService implements driving.SettingsService in memory.
type mockSettingsService struct {
	settings    domain.Settings
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	s := domain.DefaultSettings()
	s.Index.Path = "/tmp/askdocs-index"
	return &mockSettingsService{settings: s}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.Settings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if provider.RequiresAPIKey() && apiKey == "" {
		return errors.New("API key required")
	}
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if provider.RequiresAPIKey() && apiKey == "" {
		return errors.New("API key required")
	}
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// testServices are the mocks behind the commands during a test.
type testServices struct {
	query    *mockQueryService
	ingest   *mockIngestService
	rebuild  *mockRebuildService
	index    *mockIndexService
	settings *mockSettingsService
	lastOpts app.Options
	openErr  error
	terminal bool
	tuiRuns  int
	tuiPorts bool
	pings    int
	noPDF    bool
}

// setupTestServices points the commands at mocks and returns a cleanup
// function restoring the real wiring and flag values.
func setupTestServices() (*testServices, func()) {
	svc := &testServices{
		query:    &mockQueryService{},
		ingest:   &mockIngestService{},
		rebuild:  &mockRebuildService{},
		index:    &mockIndexService{info: driving.IndexInfo{Path: "/tmp/askdocs-index"}},
		settings: newMockSettingsService(),
	}

	origOpenApp := openApp
	origOpenSettings := openSettings
	origTerminal := stdinIsTerminal
	origRunTUI := runTUI
	origPingEmbedding := pingEmbedding
	origPingLLM := pingLLM
	origInput := settingsInput
	origCheckPDF := checkPDFTool

	openApp = func(_ context.Context, opts app.Options) (*app.App, error) {
		svc.lastOpts = opts
		if svc.openErr != nil {
			return nil, svc.openErr
		}
		return &app.App{
			Settings:  svc.settings.settings,
			Query:     svc.query,
			Retrieval: &mockRetrievalService{},
			Ingest:    svc.ingest,
			Rebuild:   svc.rebuild,
			Index:     svc.index,
		}, nil
	}
	openSettings = func(_, _ string) (driving.SettingsService, error) {
		return svc.settings, nil
	}
	stdinIsTerminal = func() bool { return svc.terminal }
	runTUI = func(a *tui.App) error {
		svc.tuiRuns++
		svc.tuiPorts = a.Chat() != nil
		return nil
	}
	pingEmbedding = func(context.Context, domain.EmbeddingSettings) error {
		svc.pings++
		return nil
	}
	pingLLM = func(context.Context, domain.LLMSettings) error {
		svc.pings++
		return nil
	}

	checkPDFTool = func() error {
		if svc.noPDF {
			return pdf.ErrPDFToolNotFound
		}
		return nil
	}

	return svc, func() {
		openApp = origOpenApp
		openSettings = origOpenSettings
		stdinIsTerminal = origTerminal
		runTUI = origRunTUI
		pingEmbedding = origPingEmbedding
		pingLLM = origPingLLM
		settingsInput = origInput
		checkPDFTool = origCheckPDF
		resetFlags()
		resetContexts(rootCmd)
		rootCmd.SetIn(os.Stdin)
	}
}

// resetContexts clears the context cobra stores on cmd and its children.
// Execute only hands the root context to commands without one, so a stale
// context would otherwise leak into the next run.
func resetContexts(cmd *cobra.Command) {
	cmd.SetContext(nil) //nolint:staticcheck // nil clears the stored context
	for _, c := range cmd.Commands() {
		resetContexts(c)
	}
}

// resetFlags restores flag variables, which persist between Execute calls.
func resetFlags() {
	configDir, indexPath, verbose = "", "", false
	askSources, askJSON = false, false
	ingestCreateIndex = false
	rebuildYes = false
	serveAddr, serveCreateIndex = "", false
	_ = mcpCmd.Flags().Set("http", "")
}
