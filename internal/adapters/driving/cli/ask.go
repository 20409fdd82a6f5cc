package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// previewLength is the number of characters shown per source passage.
const previewLength = 120

var (
	askSources bool
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed documents",
	Long: `Retrieves the passages closest to the question and asks the language
model to answer from them alone. When nothing relevant is indexed the
model is told so and answers accordingly.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "list the passages the answer was drawn from")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	opts := appOptions()
	opts.WithLLM = true
	a, err := openApp(commandContext(cmd), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Query == nil {
		return errors.New("query service not configured")
	}

	answer, err := a.Query.Answer(commandContext(cmd), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswer(cmd, answer)
	return nil
}

// answerJSON is the --json output shape.
type answerJSON struct {
	Answer    string       `json:"answer"`
	NoContext bool         `json:"no_context"`
	Sources   []sourceJSON `json:"sources,omitempty"`
}

type sourceJSON struct {
	Source  string  `json:"source"`
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := answerJSON{Answer: answer.Text, NoContext: answer.NoContext}
	if askSources {
		for i := range answer.Sources {
			src := &answer.Sources[i]
			out.Sources = append(out.Sources, sourceJSON{
				Source:  sourceLabel(src.Entry),
				ChunkID: src.Entry.ChunkID,
				Score:   src.Score,
				Content: src.Entry.Content,
			})
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	if !askSources {
		return
	}

	cmd.Println()
	if answer.NoContext || len(answer.Sources) == 0 {
		cmd.Println("Sources: none (no passages matched)")
		return
	}
	cmd.Println("Sources:")
	for i := range answer.Sources {
		src := &answer.Sources[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, sourceLabel(src.Entry), src.Score)
		cmd.Printf("      %s\n", preview(src.Entry.Content))
	}
}

// sourceLabel names the document a passage came from.
func sourceLabel(e domain.IndexEntry) string {
	if name, ok := e.Metadata["source"].(string); ok && name != "" {
		return name
	}
	return e.DocumentID
}

func preview(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= previewLength {
		return flat
	}
	return string(runes[:previewLength]) + "..."
}
