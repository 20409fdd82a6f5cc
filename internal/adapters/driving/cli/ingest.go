package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

var ingestCreateIndex bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Add documents to the index",
	Long: `Parses, chunks and embeds each file and appends its passages to the
index. PDF (.pdf) and plain text (.txt) files are supported. Each file is
added completely or not at all; a failure does not stop the remaining files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestCreateIndex, "create-index", false, "create the index if it does not exist")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	opts := appOptions()
	opts.CreateIndex = ingestCreateIndex
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	for _, path := range args {
		if domain.FormatFromFilename(path) == domain.FormatPDF {
			warnMissingPDFTool(cmd)
			break
		}
	}

	failed := 0
	for _, path := range args {
		result, err := ingestFile(cmd, a.Ingest, path)
		if err != nil {
			failed++
			cmd.PrintErrf("  %s: %v\n", path, err)
			continue
		}
		if result.Skipped {
			cmd.Printf("  %s\n", result.Message)
			continue
		}
		cmd.Printf("  %s (%d chunks)\n", result.Message, result.ChunksAdded)
	}

	if a.Index != nil {
		cmd.Printf("Index now holds %d passages.\n", a.Index.Info().Count)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func ingestFile(cmd *cobra.Command, svc driving.IngestService, path string) (*domain.IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	return svc.Ingest(commandContext(cmd), driving.Upload{
		Filename: filepath.Base(path),
		Content:  f,
	})
}
