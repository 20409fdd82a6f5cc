package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/httpapi"
)

var (
	serveAddr        string
	serveCreateIndex bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the chat and upload endpoints:

  POST /chat              {"question": "..."} -> {"answer": "..."}
  POST /upload-document   multipart field "file" -> {"message", "chunks_added"}
  GET  /health
  GET  /index

The server stops gracefully on interrupt.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
	serveCmd.Flags().BoolVar(&serveCreateIndex, "create-index", false, "start with an empty index if none exists")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := appOptions()
	opts.CreateIndex = serveCreateIndex
	opts.WithLLM = true
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Query == nil || a.Ingest == nil {
		return errors.New("query and ingest services not configured")
	}

	warnMissingPDFTool(cmd)

	addr := serveAddr
	if addr == "" {
		addr = a.Settings.Server.Addr
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Query:  a.Query,
		Ingest: a.Ingest,
		Index:  a.Index,
	}, httpapi.Config{
		Addr:           addr,
		MaxUploadBytes: a.Settings.Ingest.MaxUploadBytes,
	})
	if err != nil {
		return err
	}

	cmd.Printf("askdocs listening on http://%s\n", addr)
	return server.Run(ctx)
}
