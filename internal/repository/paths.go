package repository

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adrg/xdg"

	"personamcp/pkg/fileops"
)

const appName = "personamcp"

var (
	sshURLPattern       = regexp.MustCompile(`^git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)
	sshNormalizePattern = regexp.MustCompile(`^git@([^:]+):(.+)$`)
)

// DefaultStorageDir returns the directory git bundle repositories are cloned
// under (e.g. ~/.local/share/personamcp).
func DefaultStorageDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// DefaultClonePath derives <DefaultStorageDir>/<repo> from a remote URL.
//
// Examples:
//   - git@github.com:user/personas.git -> ~/.local/share/personamcp/personas
//   - https://github.com/user/personas.git -> ~/.local/share/personamcp/personas
func DefaultClonePath(remoteURL string) (string, error) {
	var name string
	if isLocalURL(remoteURL) {
		name = strings.TrimSuffix(filepath.Base(strings.TrimPrefix(remoteURL, "file://")), ".git")
	} else {
		info, err := ParseGitURL(remoteURL)
		if err != nil {
			return "", err
		}
		name = info.Repo
	}

	clonePath := filepath.Clean(filepath.Join(DefaultStorageDir(), name))
	if err := fileops.ValidatePathSecurity(clonePath); err != nil {
		return "", fmt.Errorf("derived path failed security validation: %w", err)
	}
	if !filepath.IsAbs(clonePath) {
		return "", fmt.Errorf("derived clone path must be absolute: %s", clonePath)
	}
	return clonePath, nil
}

// ValidatePath checks a configured repository directory: absolute or
// home-relative, no traversal, not a system directory.
func ValidatePath(path string) error {
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains null bytes")
	}
	if err := fileops.ValidateStoragePath(path); err != nil {
		return fmt.Errorf("invalid repository path: %w", err)
	}
	return nil
}

// GitURLInfo contains the parsed components of a Git repository URL.
type GitURLInfo struct {
	Host  string // Host (e.g., "github.com")
	Owner string // Repository owner/organization
	Repo  string // Repository name (without .git suffix)
}

// ParseGitURL parses SSH (git@host:owner/repo.git) and HTTPS
// (https://host/owner/repo.git) URLs. The .git suffix is optional.
func ParseGitURL(gitURL string) (GitURLInfo, error) {
	gitURL = strings.TrimSpace(gitURL)

	if matches := sshURLPattern.FindStringSubmatch(gitURL); matches != nil {
		return GitURLInfo{
			Host:  matches[1],
			Owner: matches[2],
			Repo:  matches[3],
		}, nil
	}

	parsedURL, err := url.Parse(gitURL)
	if err != nil {
		return GitURLInfo{}, fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Host == "" {
		return GitURLInfo{}, fmt.Errorf("URL missing host component")
	}

	pathParts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(pathParts) < 2 {
		return GitURLInfo{}, fmt.Errorf("URL path should contain owner/repo: %s", parsedURL.Path)
	}

	owner := pathParts[0]
	repo := strings.TrimSuffix(pathParts[1], ".git")
	if owner == "" || repo == "" {
		return GitURLInfo{}, fmt.Errorf("could not extract owner/repo from URL path: %s", parsedURL.Path)
	}

	return GitURLInfo{
		Host:  parsedURL.Host,
		Owner: owner,
		Repo:  repo,
	}, nil
}

// normalizeGitURL reduces SSH and HTTPS forms of the same repository to one
// comparable string.
func normalizeGitURL(gitURL string) string {
	gitURL = strings.TrimSpace(gitURL)
	gitURL = strings.TrimSuffix(gitURL, "/")
	gitURL = strings.TrimSuffix(gitURL, ".git")

	// git@github.com:owner/repo -> github.com/owner/repo
	if matches := sshNormalizePattern.FindStringSubmatch(gitURL); matches != nil {
		return matches[1] + "/" + matches[2]
	}

	for _, scheme := range []string{"https://", "http://", "file://"} {
		if after, found := strings.CutPrefix(gitURL, scheme); found {
			return after
		}
	}
	return gitURL
}

// isLocalURL reports whether the remote is a repository on this machine.
// Such remotes are used verbatim, which also keeps tests offline.
func isLocalURL(remoteURL string) bool {
	remoteURL = strings.TrimSpace(remoteURL)
	return strings.HasPrefix(remoteURL, "file://") || filepath.IsAbs(remoteURL)
}
