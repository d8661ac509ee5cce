package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/scriptindex/scriptindex/internal/log"
	"github.com/scriptindex/scriptindex/internal/mcpserver"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start the MCP tool server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This exposes search_scripts, list_scripts, and get_script to an external
agent over JSON-RPC. Configuration is loaded from environment variables
and an optional .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.NewStdioLogger(cfg)
	slogger := logger.Slog()

	slogger.Info("starting MCP server", slog.String("version", version))

	srv := mcpserver.New(cfg, version, slogger)
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("serve stdio: %w", err)
	}
	return nil
}
