// Package main provides the entry point for the SDR Coach API server
// and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sdr_coach",
	Short: "SDR Coach resume analysis service",
	Long:  "SDR Coach turns an uploaded resume into structured career coaching insight: profile scoring, recommendations, readiness assessment, and next steps for sales development roles.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
