package main

import (
	"github.com/spf13/cobra"

	"personamcp/internal/mcp"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "personamcp",
	Short: "Serve character personas and worldbooks over MCP",
	Long: `personamcp exposes persona bundles to AI assistants over the Model
Context Protocol. Each persona contributes tools for its system prompt,
safety guidelines and worldbook, plus matching resources and a prompt.

The list, get, search, show and prompt commands run the same operations
locally for checking a bundle before serving it.`,
	Version:       mcp.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/personamcp/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
}
