// Package main is the entry point for the vendorfeed CLI.
package main

import (
	"os"

	"github.com/jmylchreest/vendorfeed/cmd/vendorfeed/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
