package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui"
)

// runTUI starts the terminal UI. Tests replace it to avoid taking over the terminal.
var runTUI = func(app *tui.App) error {
	return app.Run()
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your documents in the terminal",
	Long: `Launch the interactive terminal chat.

Each question retrieves passages from the index and is answered from them.

Controls:
  Enter     - Ask
  Ctrl+S    - Show or hide sources
  PgUp/PgDn - Scroll the conversation
  Ctrl+L    - Clear the conversation
  F1        - Toggle help
  Ctrl+C    - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) (err error) {
	// Recover so a panic inside the UI still prints a stack trace once the
	// terminal is restored.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = errors.New("chat exited unexpectedly")
		}
	}()

	ctx := commandContext(cmd)
	opts := appOptions()
	opts.WithLLM = true
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	app, err := tui.NewApp(&tui.Ports{
		Query: a.Query,
		Index: a.Index,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	if err := runTUI(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
