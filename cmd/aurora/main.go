package main

import (
	"os"

	"github.com/wonny/aurora/engine/cmd/aurora/commands"
)

// main is the entry point for the engine CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/aurora [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
