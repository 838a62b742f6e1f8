// Package main is the entry point for the renewal CLI application.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/Smriti1996/renewal-intelligence-nba/internal/cli"
)

// Version information (set at build time via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Optional .env for API keys; absence is not an error.
	_ = godotenv.Load()

	cli.SetVersionInfo(version, commit, date)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
