package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"personamcp/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config",
	Long: `Writes a config with the luoluo and uozumi personas, reading their files
from a local directory under $XDG_DATA_HOME/personamcp. Edit the file to
point at your own bundle repository.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.ConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Wrote "+path))
	return nil
}
