// Package cli provides the askdocs command line built with cobra.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/app"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
	"github.com/custodia-labs/askdocs/internal/normalisers/pdf"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Persistent flag values.
var (
	configDir string
	indexPath string
	verbose   bool
)

// openApp builds the services for a command. Tests replace it with mocks.
var openApp = app.New

// openSettings returns the settings service. Tests replace it with mocks.
var openSettings = func(configDir, indexPath string) (driving.SettingsService, error) {
	return app.NewSettingsService(configDir, indexPath)
}

// checkPDFTool reports whether PDF text extraction is available. Tests replace it.
var checkPDFTool = pdf.CheckAvailable

var rootCmd = &cobra.Command{
	Use:   "askdocs",
	Short: "Ask questions about your documents",
	Long: `askdocs answers questions from the documents you give it.

Documents are split into overlapping passages, embedded and kept in a
local index. Each question retrieves the closest passages and a language
model answers from them alone.

Get started:
  askdocs ingest --create-index handbook.pdf
  askdocs ask "How many days of leave do I get?"
  askdocs serve`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.askdocs)")
	rootCmd.PersistentFlags().StringVar(&indexPath, "index", "", "index directory (overrides index.path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
}

// ExecuteContext runs the root command with ctx, which commands observe for cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// appOptions returns the options shared by every command that opens the index.
func appOptions() app.Options {
	return app.Options{
		ConfigDir: configDir,
		IndexPath: indexPath,
	}
}

// commandContext returns the command's context, falling back to Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// warnMissingPDFTool prints install instructions when PDF uploads cannot work.
func warnMissingPDFTool(cmd *cobra.Command) {
	if err := checkPDFTool(); err != nil {
		cmd.PrintErrf("warning: %v, PDF documents will be rejected\n%s\n", err, pdf.InstallInstructions())
	}
}
