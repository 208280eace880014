package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	credentialService = appName
	githubTokenKey    = "github_pat"

	minTokenLength = 20
)

// ErrNoToken is returned when no Personal Access Token is stored.
var ErrNoToken = errors.New("no GitHub token stored")

// tokenKinds maps GitHub token prefixes to a readable kind. Order matters:
// the first matching prefix wins.
var tokenKinds = []struct {
	prefix string
	kind   string
}{
	{"ghp_", "classic PAT"},
	{"github_pat_", "fine-grained PAT"},
	{"gho_", "OAuth token"},
	{"ghu_", "user-to-server token"},
	{"ghs_", "server-to-server token"},
}

// CredentialManager keeps the GitHub Personal Access Token used for private
// bundle repositories in the OS credential store.
type CredentialManager struct {
	service string
}

func NewCredentialManager() *CredentialManager {
	return &CredentialManager{service: credentialService}
}

// StoreGitHubToken validates and stores token, replacing any previous one.
func (cm *CredentialManager) StoreGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := validateTokenFormat(token); err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}

	if err := keyring.Set(cm.service, githubTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token in credential store: %w", err)
	}
	return nil
}

// GetGitHubToken returns the stored token. A missing token wraps ErrNoToken.
func (cm *CredentialManager) GetGitHubToken() (string, error) {
	token, err := keyring.Get(cm.service, githubTokenKey)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", fmt.Errorf("%w: run 'personamcp token set' to configure one", ErrNoToken)
	case err != nil:
		return "", fmt.Errorf("failed to retrieve token from credential store: %w", err)
	case strings.TrimSpace(token) == "":
		return "", fmt.Errorf("%w: stored token is empty", ErrNoToken)
	}
	return token, nil
}

// GitHubTokenKind describes the stored token ("classic PAT", ...) without
// exposing it. It returns ErrNoToken when nothing is stored.
func (cm *CredentialManager) GitHubTokenKind() (string, error) {
	token, err := cm.GetGitHubToken()
	if err != nil {
		return "", err
	}
	return tokenKind(token), nil
}

// DeleteGitHubToken removes the stored token. Deleting a missing token is
// not an error.
func (cm *CredentialManager) DeleteGitHubToken() error {
	err := keyring.Delete(cm.service, githubTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from credential store: %w", err)
	}
	return nil
}

// HasGitHubToken checks if a token is stored without returning it.
func (cm *CredentialManager) HasGitHubToken() bool {
	_, err := cm.GetGitHubToken()
	return err == nil
}

func tokenKind(token string) string {
	for _, k := range tokenKinds {
		if strings.HasPrefix(token, k.prefix) {
			return k.kind
		}
	}
	return ""
}

// validateTokenFormat checks the length and prefix of a GitHub token.
func validateTokenFormat(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < minTokenLength {
		return fmt.Errorf("token too short (minimum %d characters)", minTokenLength)
	}
	if tokenKind(token) == "" {
		return errors.New("token does not match expected GitHub PAT format (should start with ghp_ or github_pat_)")
	}
	return nil
}
