package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/sdr-coach/internal/blob"
	"github.com/jonathan/sdr-coach/internal/config"
	"github.com/jonathan/sdr-coach/internal/fetchjob"
	"github.com/jonathan/sdr-coach/internal/insight"
	"github.com/jonathan/sdr-coach/internal/llm"
	"github.com/jonathan/sdr-coach/internal/pipeline"
	"github.com/jonathan/sdr-coach/internal/profile"
	"github.com/jonathan/sdr-coach/internal/server"
)

var (
	servePort       int
	serveUseBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for resume uploads and coaching analyses.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Render job postings with a headless browser when static fetch comes up short")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
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

	srv, err := server.New(server.Config{Port: cfg.Port, JWTSecret: cfg.JWTSecret}, *deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// buildDeps constructs the shared collaborator graph used by both the
// server and the one-shot analyze command.
func buildDeps(ctx context.Context, cfg *config.Config) (*server.Deps, func(), error) {
	pool, err := insight.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	blobClient, err := blob.NewClient(ctx, cfg.Storage)
	if err != nil {
		pool.Close()
		llmClient.Close()
		return nil, nil, err
	}

	insights := insight.NewStore(pool)
	profiles := profile.NewStore(pool)
	jobs := fetchjob.New(fetchjob.Options{UseBrowser: serveUseBrowser})

	pipe, err := pipeline.New(pipeline.Config{
		LLM:            llmClient,
		Blob:           blobClient,
		Profiles:       profiles,
		Insights:       insights,
		Jobs:           jobs,
		ContentCeiling: cfg.ContentCeiling,
	})
	if err != nil {
		pool.Close()
		llmClient.Close()
		return nil, nil, err
	}

	cleanup := func() {
		llmClient.Close()
		pool.Close()
	}

	return &server.Deps{
		Pipeline: pipe,
		Insights: insights,
		Profiles: profiles,
		Blob:     blobClient,
	}, cleanup, nil
}
