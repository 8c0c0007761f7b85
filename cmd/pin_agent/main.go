// Package main provides the pin_agent command: one-shot pipeline runs, the
// trigger server, ledger migrations and OAuth token helpers.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pin_agent",
	Short: "Trend-driven blog and pin publishing pipeline",
	Long: `pin_agent picks a trending topic relevant to the store, writes a blog article for it,
creates a branded pin image and posts it to Pinterest, recording every step in Postgres.`,
	SilenceUsage: true,
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
