package main

import (
	"os"

	"github.com/mkarlsen/tradelens/cmd/tradelens/commands"
)

// main is the entry point for the TradeLens CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
