// Package main is the entry point for the scriptindex CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scriptindex/scriptindex/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scriptindex",
		Short: "Semantic search over a directory of system-administration scripts",
		Long:  `scriptindex indexes a tree of scripts, embeds their descriptions, and serves semantic search over them from the command line or over an MCP stdio connection.`,
		// Error formatting and printing is handled by main so callers get a
		// single "Error: <message>" line instead of cobra's own duplicate
		// error-plus-usage output.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(searchCmd())
	cmd.AddCommand(seedCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
