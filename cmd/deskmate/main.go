package main

import (
	"os"

	"github.com/deskmate-labs/deskmate-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
