package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the persisted index",
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the index location, model and size",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

func init() {
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	a, err := openApp(commandContext(cmd), appOptions())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Index == nil {
		return errors.New("index service not configured")
	}

	info := a.Index.Info()
	cmd.Println("Index")
	cmd.Println("=====")
	cmd.Printf("  Path: %s\n", info.Path)
	cmd.Printf("  Passages: %d\n", info.Count)
	cmd.Printf("  Embedding model: %s\n", info.Identity.EmbeddingModel)
	cmd.Printf("  Dimensions: %d\n", info.Identity.Dimensions)
	cmd.Printf("  Metric: %s\n", info.Identity.Metric.Description())
	cmd.Printf("  Chunking: %d characters, %d overlap\n", info.Identity.ChunkSize, info.Identity.ChunkOverlap)
	return nil
}
