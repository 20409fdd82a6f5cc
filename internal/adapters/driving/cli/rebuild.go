package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

var rebuildYes bool

// stdinIsTerminal reports whether confirmation can be asked interactively.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [file]",
	Short: "Replace the whole index with one document",
	Long: `Discards every passage in the index and rebuilds it from a single
document using the current embedding and chunking settings. Run this after
changing the embedding model or chunk size.

A non-empty index is only replaced after confirmation: pass --yes, or
answer the prompt when running in a terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runRebuild,
}

func init() {
	rebuildCmd.Flags().BoolVarP(&rebuildYes, "yes", "y", false, "replace a non-empty index without asking")
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := commandContext(cmd)

	opts := appOptions()
	opts.ForRebuild = true
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Rebuild == nil {
		return errors.New("rebuild service not configured")
	}

	name := filepath.Base(path)
	format := domain.FormatFromFilename(name)
	if format == "" {
		return fmt.Errorf("%w: %s files are not accepted, use a .pdf or .txt file",
			domain.ErrUnsupportedFormat, filepath.Ext(name))
	}
	if format == domain.FormatPDF {
		warnMissingPDFTool(cmd)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	confirmed := rebuildYes
	if !confirmed && a.Index != nil {
		if info := a.Index.Info(); info.Count > 0 {
			confirmed, err = confirmRebuild(cmd, info)
			if err != nil {
				return err
			}
			if !confirmed {
				cmd.Println("Rebuild cancelled.")
				return nil
			}
		}
	}

	result, err := a.Rebuild.Rebuild(ctx, driving.Upload{
		Filename: name,
		Content:  f,
	}, confirmed)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("%s (%d chunks)\n", result.Message, result.ChunksAdded)
	return nil
}

// confirmRebuild asks before discarding entries. Without a terminal there is
// nobody to ask, so the rebuild is refused.
func confirmRebuild(cmd *cobra.Command, info driving.IndexInfo) (bool, error) {
	if !stdinIsTerminal() {
		return false, fmt.Errorf("%w: the index at %s holds %d passages; pass --yes to replace it",
			domain.ErrRebuildNotConfirmed, info.Path, info.Count)
	}

	cmd.Printf("This discards all %d passages in %s. Continue? [y/N]: ", info.Count, info.Path)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, _ := reader.ReadString('\n') //nolint:errcheck // EOF reads as no
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
