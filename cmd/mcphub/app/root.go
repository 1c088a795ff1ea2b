// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the mcphub command-line application.
package app

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/mcphub/pkg/logger"
	"github.com/stacklok/mcphub/pkg/versions"
)

var rootCmd = &cobra.Command{
	Use:               "mcphub",
	DisableAutoGenTag: true,
	Short:             "MCP Hub - registry and gateway for MCP servers",
	Long: `MCP Hub (mcphub) is a registry and gateway for MCP (Model Context Protocol) servers.
It provides:

- Registration of MCP servers over stdio, streamable HTTP, or SSE transports
- One-shot capability discovery (tools, resources, prompts) at registration
- Capability search across all registered servers
- A unified gateway that proxies JSON-RPC and REST calls through pooled,
  long-lived sessions to the backing servers
- An A2A agent card registry`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd creates a new root command for the mcphub CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	if err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newExampleServerCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true

	return rootCmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display version information for mcphub",
		RunE: func(_ *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}
