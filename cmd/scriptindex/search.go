package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scriptindex/scriptindex/internal/cliutil"
	"github.com/scriptindex/scriptindex/internal/embedding"
	"github.com/scriptindex/scriptindex/internal/repository"
	"github.com/scriptindex/scriptindex/internal/search"
	"github.com/scriptindex/scriptindex/internal/storage"
)

func searchCmd() *cobra.Command {
	var (
		envFile       string
		category      string
		limit         int
		minSimilarity float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed scripts by semantic similarity to a query",
		Long:  `Embeds the given query and ranks indexed scripts by cosine similarity, optionally filtered by category and a minimum similarity threshold.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("search requires a query")
			}

			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var minSimPtr *float64
			if cmd.Flags().Changed("min-similarity") {
				minSimPtr = &minSimilarity
			}

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
			searcher := search.New(embedder, repo)

			results, err := searcher.Search(ctx, query, search.Params{
				TopN:          limit,
				Category:      category,
				MinSimilarity: minSimPtr,
			})
			if err != nil {
				return err
			}

			cliutil.PrintResults(os.Stdout, results)
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&category, "category", "", "Restrict results to this category")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0, "Minimum cosine similarity threshold, in [-1, 1]")

	return cmd
}
