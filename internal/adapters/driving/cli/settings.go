package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/ai"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// pingEmbedding checks that an embedding configuration can reach its backend.
var pingEmbedding = func(ctx context.Context, s domain.EmbeddingSettings) error {
	svc, err := ai.CreateEmbeddingService(s)
	if err != nil {
		return err
	}
	defer svc.Close()
	return svc.Ping(ctx)
}

// pingLLM checks that a synthesizer configuration can reach its backend.
var pingLLM = func(ctx context.Context, s domain.LLMSettings) error {
	svc, err := ai.CreateLLMService(ctx, s)
	if err != nil {
		return err
	}
	defer svc.Close()
	return svc.Ping(ctx)
}

// settingsInput is where interactive answers are read from. Tests replace it.
var settingsInput io.Reader = os.Stdin

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change settings",
	Long: `Show the effective settings, or change the model providers.

Settings live in config.toml inside the config directory, under the same
[section] and key names printed here. API keys are read from the
environment (e.g. GROQ_API_KEY) when config.toml has none.`,
	RunE: runSettingsShow,
}

func init() {
	settingsCmd.AddCommand(
		&cobra.Command{Use: "show", Short: "Show the effective settings", RunE: runSettingsShow},
		&cobra.Command{Use: "wizard", Short: "Choose the embedding and answer providers", RunE: runSettingsWizard},
		&cobra.Command{
			Use:   "embedding",
			Short: "Choose the embedding provider",
			Long: `Choose the provider and model that embed passages and questions.

Changing the model or its dimensions makes an existing index unusable
until it is rebuilt with 'askdocs rebuild'.`,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runProviderSteps(cmd, embeddingStep)
			},
		},
		&cobra.Command{
			Use:   "llm",
			Short: "Choose the answer provider",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runProviderSteps(cmd, llmStep)
			},
		},
	)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := openSettings(configDir, indexPath)
	if err != nil {
		return err
	}
	if svc == nil {
		return errors.New("settings service not configured")
	}
	s, err := svc.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 1, ' ', 0)
	for _, sec := range settingsSections(s) {
		fmt.Fprintf(w, "[%s]\n", sec.name)
		for _, row := range sec.rows {
			fmt.Fprintf(w, "  %s\t= %s\n", row[0], row[1])
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'askdocs settings wizard' to fix it.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

type section struct {
	name string
	rows [][2]string
}

// settingsSections lays s out under its config.toml keys. Secrets are
// masked; unset optional values are left out.
func settingsSections(s *domain.Settings) []section {
	embedding := [][2]string{
		{"provider", s.Embedding.Provider.Description()},
		{"model", s.Embedding.Model},
	}
	embedding = appendIf(embedding, s.Embedding.BaseURL != "", "base_url", s.Embedding.BaseURL)
	embedding = appendIf(embedding, s.Embedding.Dimensions > 0, "dimensions", strconv.Itoa(s.Embedding.Dimensions))
	embedding = appendIf(embedding, s.Embedding.Provider.RequiresAPIKey(), "api_key", apiKeyStatus(s.Embedding.Provider, s.Embedding.APIKey))
	embedding = append(embedding, [2]string{"status", configuredStatus(s.Embedding.IsConfigured())})

	llm := [][2]string{
		{"provider", s.LLM.Provider.Description()},
		{"model", s.LLM.Model},
	}
	llm = appendIf(llm, s.LLM.BaseURL != "", "base_url", s.LLM.BaseURL)
	llm = appendIf(llm, s.LLM.Provider.RequiresAPIKey(), "api_key", apiKeyStatus(s.LLM.Provider, s.LLM.APIKey))
	llm = append(llm,
		[2]string{"max_tokens", strconv.Itoa(s.LLM.MaxTokens)},
		[2]string{"temperature", strconv.FormatFloat(s.LLM.Temperature, 'g', -1, 64)},
		[2]string{"status", configuredStatus(s.LLM.IsConfigured())},
	)

	upstream := [][2]string{
		{"timeout", s.Upstream.Timeout.String()},
		{"max_attempts", strconv.Itoa(s.Upstream.MaxAttempts)},
		{"backoff", s.Upstream.Backoff.String()},
	}
	upstream = appendIf(upstream, s.Upstream.RatePerSecond > 0, "rate_per_second",
		strconv.FormatFloat(s.Upstream.RatePerSecond, 'g', -1, 64))

	return []section{
		{"index", [][2]string{
			{"path", s.Index.Path},
			{"metric", s.Index.Metric.Description()},
			{"create_if_missing", strconv.FormatBool(s.Index.CreateIfMissing)},
		}},
		{"chunking", [][2]string{
			{"size", fmt.Sprintf("%d characters", s.Chunking.Size)},
			{"overlap", fmt.Sprintf("%d characters", s.Chunking.Overlap)},
		}},
		{"retrieval", [][2]string{
			{"top_k", strconv.Itoa(s.Retrieval.TopK)},
			{"max_context_chars", strconv.Itoa(s.Retrieval.MaxContextChars)},
		}},
		{"ingest", [][2]string{
			{"deduplicate", strconv.FormatBool(s.Ingest.Deduplicate)},
			{"max_upload_bytes", strconv.FormatInt(s.Ingest.MaxUploadBytes, 10)},
		}},
		{"embedding", embedding},
		{"llm", llm},
		{"upstream", upstream},
		{"server", [][2]string{{"addr", s.Server.Addr}}},
	}
}

func appendIf(rows [][2]string, ok bool, key, value string) [][2]string {
	if !ok {
		return rows
	}
	return append(rows, [2]string{key, value})
}

func apiKeyStatus(p domain.AIProvider, key string) string {
	if key == "" {
		return "(not set, export " + p.APIKeyEnv() + ")"
	}
	return maskAPIKey(key)
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if err := runProviderSteps(cmd, embeddingStep, llmStep); err != nil {
		return err
	}
	svc, err := openSettings(configDir, indexPath)
	if err != nil {
		return err
	}
	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		return nil
	}
	cmd.Println("All settings are valid and saved.")
	return nil
}

// providerStep is one "choose a provider" question.
type providerStep struct {
	title     string
	providers func() []domain.AIProvider
	models    func() map[domain.AIProvider]string
	save      func(svc driving.SettingsService, p domain.AIProvider, model, key string) error
	ping      func(ctx context.Context, s *domain.Settings) error
}

var embeddingStep = providerStep{
	title:     "Embedding provider",
	providers: domain.AllEmbeddingProviders,
	models:    domain.DefaultEmbeddingModels,
	save: func(svc driving.SettingsService, p domain.AIProvider, model, key string) error {
		return svc.SetEmbeddingProvider(p, model, key)
	},
	ping: func(ctx context.Context, s *domain.Settings) error {
		return pingEmbedding(ctx, s.Embedding)
	},
}

var llmStep = providerStep{
	title:     "Answer provider",
	providers: domain.AllLLMProviders,
	models:    domain.DefaultLLMModels,
	save: func(svc driving.SettingsService, p domain.AIProvider, model, key string) error {
		return svc.SetLLMProvider(p, model, key)
	},
	ping: func(ctx context.Context, s *domain.Settings) error {
		return pingLLM(ctx, s.LLM)
	},
}

func runProviderSteps(cmd *cobra.Command, steps ...providerStep) error {
	svc, err := openSettings(configDir, indexPath)
	if err != nil {
		return err
	}
	in := bufio.NewReader(settingsInput)
	for i, step := range steps {
		if len(steps) > 1 {
			cmd.Printf("Step %d of %d: ", i+1, len(steps))
		}
		if err := step.run(cmd, svc, in); err != nil {
			return err
		}
	}
	return nil
}

// run asks for provider, model and, when needed, an API key, saves them
// and then checks the backend answers. An empty key defers to the
// provider's environment variable.
func (st providerStep) run(cmd *cobra.Command, svc driving.SettingsService, in *bufio.Reader) error {
	cmd.Println(st.title)
	providers := st.providers()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("Choice [1]: ")
	provider := providers[parseChoice(readLine(in), len(providers), 1)-1]

	model := st.models()[provider]
	cmd.Printf("Model [%s]: ", model)
	if typed := readLine(in); typed != "" {
		model = typed
	}

	var key string
	if provider.RequiresAPIKey() {
		cmd.Printf("API key (empty uses %s): ", provider.APIKeyEnv())
		key = readSecret(in)
		cmd.Println()
	}

	if err := st.save(svc, provider, model, key); err != nil {
		return fmt.Errorf("saving %s: %w", strings.ToLower(st.title), err)
	}
	s, err := svc.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := st.ping(commandContext(cmd), s); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s check failed: %w", strings.ToLower(st.title), err)
	}
	cmd.Println("OK")
	cmd.Printf("%s set to %s (%s)\n\n", st.title, provider.Description(), model)
	return nil
}

func readLine(in *bufio.Reader) string {
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

// parseChoice returns the 1-based choice in input, or def when input is
// empty, not a number or out of range.
func parseChoice(input string, n, def int) int {
	v, err := strconv.Atoi(input)
	if err != nil || v < 1 || v > n {
		return def
	}
	return v
}

// readSecret reads without echo when the answers come from a terminal.
func readSecret(in *bufio.Reader) string {
	if settingsInput == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		if b, err := term.ReadPassword(int(os.Stdin.Fd())); err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return readLine(in)
}

// maskAPIKey keeps the first and last four characters of keys long enough
// for that to reveal little.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
