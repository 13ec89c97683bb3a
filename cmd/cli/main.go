package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Debug("cli failed to run", "error", err)
		os.Exit(1)
	}
}
