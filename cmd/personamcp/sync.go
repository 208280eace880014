package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"personamcp/internal/config"
	"personamcp/internal/logging"
	"personamcp/internal/repository"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or update the bundle repository",
	Long: `Brings a git bundle repository up to date: clones it when the clone
directory is missing, otherwise fetches origin and resets to the remote
branch. A clone with local changes is left alone. Local directory sources
are skipped.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.NewCLILogger(cmd.ErrOrStderr())
	if logLevel != "" {
		if err := logger.SetLevel(logLevel); err != nil {
			return err
		}
	}

	result := repository.Sync(cfg.Repository, logger)
	switch result.Status {
	case repository.SyncStatusFailed:
		return fmt.Errorf("sync failed: %w", result.Err)
	case repository.SyncStatusSuccess:
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(result.Message()))
	default:
		fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render(result.Message()))
	}
	return nil
}
