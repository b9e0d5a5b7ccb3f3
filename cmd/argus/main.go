package main

import (
	"os"

	"github.com/joonho/argus/cmd/argus/commands"
)

// main is the entry point for the Argus CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/argus [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
