package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/sahay-labs/sahay-cli/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Credentials may live in a local .env file; a missing file is fine.
	_ = godotenv.Load()

	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
