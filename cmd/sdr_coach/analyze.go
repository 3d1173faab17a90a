package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/config"
	"github.com/jonathan/sdr-coach/internal/observability"
	"github.com/jonathan/sdr-coach/internal/pipeline"
)

var (
	analyzeUser         string
	analyzeKind         string
	analyzeJobURL       string
	analyzeJobText      string
	analyzeInstruction  string
	analyzeSystemPrompt string
	analyzeJSON         bool
	analyzeVerbose      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one coaching analysis from the command line",
	Long: `Run a single analysis against a user's stored resume and print the
result. The resume must already be uploaded; use the REST API or the
web client to upload one first.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "User UUID (required)")
	analyzeCmd.Flags().StringVar(&analyzeKind, "kind", string(coach.KindMaster), "Analysis kind")
	analyzeCmd.Flags().StringVar(&analyzeJobURL, "job-url", "", "Job posting URL (jobFit kind)")
	analyzeCmd.Flags().StringVar(&analyzeJobText, "job-text", "", "Job posting text (jobFit kind)")
	analyzeCmd.Flags().StringVar(&analyzeInstruction, "instruction", "", "Extra instruction appended to the request")
	analyzeCmd.Flags().StringVar(&analyzeSystemPrompt, "system-prompt", "", "System prompt (custom kind)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the structured result as JSON")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print extraction and scoring details")
	_ = analyzeCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(analyzeUser)
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}

	kind := coach.Kind(analyzeKind)
	if !coach.Valid(kind) {
		return fmt.Errorf("unknown analysis kind %q (valid: %v)", analyzeKind, coach.All())
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deps, cleanup, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := deps.Pipeline.Run(ctx, pipeline.RunRequest{
		UserID:             userID,
		Kind:               kind,
		JobURL:             analyzeJobURL,
		JobText:            analyzeJobText,
		ExtraInstruction:   analyzeInstruction,
		CustomSystemPrompt: analyzeSystemPrompt,
	})
	if err != nil {
		return err
	}

	if analyzeVerbose {
		printer := observability.NewPrinter(os.Stderr)
		printer.PrintExtraction(outcome.Provenance, outcome.Degraded, len(outcome.RawText))
		printer.PrintScores(&outcome.Structured.Schema, outcome.Structured.Source)
		printer.PrintRecommendations(&outcome.Structured.Schema)
		printer.PrintReadiness(&outcome.Structured.Schema)
		printer.PrintNextSteps(&outcome.Structured.Schema)
		printer.PrintPlaceholders(outcome.Structured.Placeholders)
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome.Structured.Schema)
	}

	fmt.Println(outcome.RawText)

	if outcome.SaveErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: analysis was not saved to history: %v\n", outcome.SaveErr)
	}
	return nil
}
