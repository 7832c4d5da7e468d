// Package main is the entry point for flakectl, the flakewatch CLI.
package main

import (
	"os"

	"flakewatch/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
