// Command askdocs answers questions from a local index of documents.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/cli"
)

func main() {
	// A .env file is optional; variables already set in the environment win.
	_ = godotenv.Load()

	if err := cli.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
