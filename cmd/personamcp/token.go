package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"personamcp/internal/repository"
)

var tokenValue string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the GitHub token for private bundle repositories",
	Long: `The token is kept in the OS credential store (Keychain, Secret Service
or Windows Credential Manager) and is only used after anonymous access to
the bundle repository fails.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a GitHub Personal Access Token",
	Long: `Stores a GitHub Personal Access Token. Without --token the token is
read from the first line of stdin, which keeps it out of shell history:

  personamcp token set < token.txt`,
	Args: cobra.NoArgs,
	RunE: runTokenSet,
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE:  runTokenDelete,
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a token is stored",
	Args:  cobra.NoArgs,
	RunE:  runTokenStatus,
}

func init() {
	tokenSetCmd.Flags().StringVar(&tokenValue, "token", "", "token value (read from stdin when empty)")
	tokenCmd.AddCommand(tokenSetCmd, tokenDeleteCmd, tokenStatusCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenSet(cmd *cobra.Command, _ []string) error {
	token := tokenValue
	if token == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("no token given: pass --token or pipe it on stdin")
		}
		token = strings.TrimSpace(line)
	}

	if err := repository.NewCredentialManager().StoreGitHubToken(token); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("GitHub token stored"))
	return nil
}

func runTokenDelete(cmd *cobra.Command, _ []string) error {
	if err := repository.NewCredentialManager().DeleteGitHubToken(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "GitHub token removed")
	return nil
}

func runTokenStatus(cmd *cobra.Command, _ []string) error {
	kind, err := repository.NewCredentialManager().GitHubTokenKind()
	switch {
	case errors.Is(err, repository.ErrNoToken):
		fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render("No GitHub token stored"))
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("GitHub token stored ("+kind+")"))
	return nil
}
