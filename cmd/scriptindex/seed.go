package main

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/scriptindex/scriptindex/internal/embedding"
	"github.com/scriptindex/scriptindex/internal/log"
	"github.com/scriptindex/scriptindex/internal/repository"
	"github.com/scriptindex/scriptindex/internal/seed"
	"github.com/scriptindex/scriptindex/internal/storage"
)

func seedCmd() *cobra.Command {
	var (
		envFile string
		ext     string
	)

	cmd := &cobra.Command{
		Use:   "seed <root>",
		Short: "Discover, analyze, embed, and index every script under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(envFile, args[0], ext)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&ext, "ext", ".sh", "File suffix to include when walking root")

	return cmd
}

func runSeed(envFile, root, ext string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.NewLogger(cfg)
	ctx := context.Background()

	client, err := storage.New(cfg.Turso().URL(), cfg.Turso().AuthToken())
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Disconnect() //nolint:errcheck

	embedder, err := embedding.New(cfg.OpenAIAPIKey(), cfg.EmbeddingModel(), cfg.EmbeddingDimensions())
	if err != nil {
		return err
	}

	repo := repository.New(client)
	seeder := seed.New(repo, embedder, ext).WithLogger(logger)

	if err := seeder.InitializeSchema(ctx); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}

	paths, err := seeder.Discover(root)
	if err != nil {
		return fmt.Errorf("discover scripts: %w", err)
	}

	bar := progressbar.Default(int64(len(paths)), "seeding")
	report, err := seeder.Seed(ctx, root, func(current, total int) {
		_ = bar.Set(current)
	})
	_ = bar.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("processed=%d inserted=%d failed=%d\n", report.Processed, report.Inserted, report.Failed)
	for _, e := range report.Errors {
		fmt.Fprintln(os.Stderr, e)
	}
	if report.Failed > 0 {
		return fmt.Errorf("seed run completed with %d failure(s)", report.Failed)
	}
	return nil
}
