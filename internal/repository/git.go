package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport/http"

	"personamcp/internal/logging"
	"personamcp/pkg/fileops"
)

// DirectoryStatus describes what Prepare found at the clone target.
type DirectoryStatus int

const (
	// DirectoryStatusEmpty means the directory is missing or empty, safe to clone.
	DirectoryStatusEmpty DirectoryStatus = iota
	// DirectoryStatusSameRepo means the directory is a clone of the configured remote.
	DirectoryStatusSameRepo
	// DirectoryStatusDifferentRepo means the directory is a clone of another remote.
	DirectoryStatusDifferentRepo
	// DirectoryStatusConflict means the directory holds non-git content.
	DirectoryStatusConflict
	// DirectoryStatusError means the directory could not be inspected.
	DirectoryStatusError
)

func (ds DirectoryStatus) String() string {
	switch ds {
	case DirectoryStatusEmpty:
		return "empty or doesn't exist"
	case DirectoryStatusSameRepo:
		return "same git repository"
	case DirectoryStatusDifferentRepo:
		return "different git repository"
	case DirectoryStatusConflict:
		return "contains non-git content"
	case DirectoryStatusError:
		return "validation error"
	default:
		return "unknown status"
	}
}

// ErrDirtyWorktree is reported by Update when local changes block the reset.
var ErrDirtyWorktree = errors.New("working tree has uncommitted changes")

// GitSource keeps a local clone of a bundle repository.
//
// The first Prepare clones into Path. Later calls fetch origin and hard reset
// the checked out branch to origin/<branch>, so the clone behaves as a cache
// of the remote. A dirty worktree is never reset; Prepare then serves the
// local state and logs a warning. Directories holding something else are
// refused instead of overwritten.
//
// Access is attempted anonymously first. On an authentication failure the
// GitHub token from the OS credential store is used.
type GitSource struct {
	RemoteURL string  // HTTPS, SSH (converted to HTTPS) or a local path
	Branch    *string // nil follows the remote's HEAD branch
	Path      string  // clone directory
}

// NewGitSource creates a GitSource. Validation is deferred to Prepare.
func NewGitSource(remoteURL string, branch *string, localPath string) GitSource {
	return GitSource{
		RemoteURL: remoteURL,
		Branch:    branch,
		Path:      localPath,
	}
}

// Prepare clones or updates the repository and returns the clone path.
func (gs GitSource) Prepare(logger *logging.AppLogger) (string, error) {
	if logger != nil {
		logger.Info("Preparing git bundle source",
			"remote_url", gs.RemoteURL,
			"branch", gs.branchName(),
			"path", gs.Path)
	}

	remoteURL, clonePath, err := gs.resolve()
	if err != nil {
		return "", err
	}

	status, err := gs.validateCloneDirectory(clonePath, remoteURL)
	if status == DirectoryStatusConflict || status == DirectoryStatusDifferentRepo {
		return "", fmt.Errorf("directory conflict at %s (%s): please resolve manually by removing or relocating the existing directory",
			clonePath, status)
	}
	if err != nil {
		return "", err
	}

	switch status {
	case DirectoryStatusEmpty:
		if err := gs.performCloneWithAuth(clonePath, remoteURL, logger); err != nil {
			return "", err
		}
	case DirectoryStatusSameRepo:
		err := gs.performUpdateWithAuth(clonePath, logger)
		if errors.Is(err, ErrDirtyWorktree) {
			if logger != nil {
				logger.Warn("Working tree has uncommitted changes, serving local state", "path", clonePath)
			}
		} else if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unexpected directory status: %s", status)
	}

	if logger != nil {
		logger.Info("Git bundle source prepared", "path", clonePath)
	}
	return clonePath, nil
}

// Update fetches and resets an existing clone. Unlike Prepare it never
// clones and reports a dirty worktree as ErrDirtyWorktree.
func (gs GitSource) Update(logger *logging.AppLogger) error {
	_, clonePath, err := gs.resolve()
	if err != nil {
		return err
	}
	if _, err := os.Stat(clonePath); os.IsNotExist(err) {
		return fmt.Errorf("repository does not exist at %s - run sync or serve to clone it", clonePath)
	}
	return gs.performUpdateWithAuth(clonePath, logger)
}

// IsDirty reports whether the repository at repoPath has uncommitted changes.
func IsDirty(repoPath string) (bool, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return false, fmt.Errorf("failed to open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get working tree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get repository status: %w", err)
	}

	return !status.IsClean(), nil
}

// resolve validates the configuration and returns the URL to clone from and
// the absolute clone path.
func (gs GitSource) resolve() (remoteURL, clonePath string, err error) {
	if strings.TrimSpace(gs.RemoteURL) == "" {
		return "", "", fmt.Errorf("remote URL cannot be empty")
	}
	if strings.TrimSpace(gs.Path) == "" {
		return "", "", fmt.Errorf("local path cannot be empty")
	}

	remoteURL, err = gs.normalizeRemoteURL()
	if err != nil {
		return "", "", fmt.Errorf("invalid remote URL: %w", err)
	}

	clonePath, err = gs.validateLocalPath()
	if err != nil {
		return "", "", err
	}
	return remoteURL, clonePath, nil
}

// normalizeRemoteURL rewrites hosted URLs to https://host/owner/repo.git.
// Local repositories are used as given.
func (gs GitSource) normalizeRemoteURL() (string, error) {
	raw := strings.TrimSpace(gs.RemoteURL)
	if isLocalURL(raw) {
		return raw, nil
	}

	info, err := ParseGitURL(raw)
	if err != nil {
		return "", fmt.Errorf("invalid Git URL format: %w", err)
	}
	return fmt.Sprintf("https://%s/%s/%s.git", info.Host, info.Owner, info.Repo), nil
}

func (gs GitSource) validateLocalPath() (string, error) {
	clean := filepath.Clean(fileops.ExpandPath(gs.Path))

	if err := fileops.ValidatePathSecurity(clean); err != nil {
		return "", fmt.Errorf("invalid local path: %w", err)
	}

	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("cannot resolve absolute path: %w", err)
	}
	return abs, nil
}

func (gs GitSource) branchName() string {
	if gs.Branch == nil {
		return ""
	}
	return strings.TrimSpace(*gs.Branch)
}

// getAuthentication returns GitHub token auth, or nil when no token is stored.
func (gs GitSource) getAuthentication(logger *logging.AppLogger) (*http.BasicAuth, error) {
	token, err := NewCredentialManager().GetGitHubToken()
	if errors.Is(err, ErrNoToken) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Debug("Using GitHub Personal Access Token for authentication")
	}

	// GitHub accepts any username with a PAT as the password.
	return &http.BasicAuth{
		Username: "token",
		Password: token,
	}, nil
}

// withAuthFallback runs op anonymously and, on an authentication failure,
// once more with the stored token.
func (gs GitSource) withAuthFallback(logger *logging.AppLogger, op func(auth *http.BasicAuth) error) error {
	err := op(nil)
	if err == nil || !isAuthenticationError(err) {
		return err
	}

	if logger != nil {
		logger.Debug("Anonymous access failed, retrying with authentication")
	}

	auth, authErr := gs.getAuthentication(logger)
	if authErr != nil {
		return fmt.Errorf("GitHub authentication failed: %w", authErr)
	}
	if auth == nil {
		return fmt.Errorf("GitHub authentication required - run 'personamcp token set' to store a Personal Access Token")
	}
	return op(auth)
}

func (gs GitSource) performCloneWithAuth(clonePath, remoteURL string, logger *logging.AppLogger) error {
	return gs.withAuthFallback(logger, func(auth *http.BasicAuth) error {
		return gs.performClone(clonePath, remoteURL, auth, logger)
	})
}

func (gs GitSource) performUpdateWithAuth(clonePath string, logger *logging.AppLogger) error {
	return gs.withAuthFallback(logger, func(auth *http.BasicAuth) error {
		return gs.performUpdate(clonePath, auth, logger)
	})
}

func (gs GitSource) performClone(clonePath, remoteURL string, auth *http.BasicAuth, logger *logging.AppLogger) error {
	if logger != nil {
		logger.Info("Cloning bundle repository", "remote_url", remoteURL, "path", clonePath)
	}

	parentDir := filepath.Dir(clonePath)
	if err := fileops.ValidatePathSecurity(parentDir); err != nil {
		return fmt.Errorf("parent directory failed security validation: %w", err)
	}
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	cloneOpts := &git.CloneOptions{
		URL: remoteURL,
	}
	if auth != nil {
		cloneOpts.Auth = auth
	}
	if b := gs.branchName(); b != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(b)
		cloneOpts.SingleBranch = true
	}

	if _, err := git.PlainClone(clonePath, cloneOpts); err != nil {
		// A failed clone leaves a partial directory behind that would be
		// reported as a conflict on the next run.
		_ = os.RemoveAll(clonePath)
		return gs.translateCloneError(err)
	}

	if logger != nil {
		logger.Info("Bundle repository cloned", "path", clonePath)
	}
	return nil
}

// performUpdate fetches origin and hard resets the current branch to
// origin/<branch>. A dirty worktree is left untouched.
func (gs GitSource) performUpdate(clonePath string, auth *http.BasicAuth, logger *logging.AppLogger) error {
	if logger != nil {
		logger.Info("Fetching bundle repository updates", "path", clonePath)
	}

	repo, err := git.PlainOpen(clonePath)
	if err != nil {
		return fmt.Errorf("failed to open existing repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get working tree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get working tree status: %w", err)
	}
	if !status.IsClean() {
		return ErrDirtyWorktree
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("failed to get origin remote: %w", err)
	}

	err = remote.Fetch(&git.FetchOptions{
		Auth:  auth,
		Force: true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return gs.translateFetchError(err)
	}

	branch := gs.branchName()
	if branch == "" {
		head, err := repo.Head()
		if err != nil {
			return fmt.Errorf("failed to resolve HEAD: %w", err)
		}
		branch = head.Name().Short()
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return fmt.Errorf("branch %q not found on origin: %w", branch, err)
	}

	if err := worktree.Reset(&git.ResetOptions{
		Commit: remoteRef.Hash(),
		Mode:   git.HardReset,
	}); err != nil {
		return fmt.Errorf("failed to reset to origin/%s: %w", branch, err)
	}

	if logger != nil {
		logger.Info("Bundle repository up to date", "branch", branch, "commit", remoteRef.Hash().String())
	}
	return nil
}

func (gs GitSource) translateCloneError(err error) error {
	errStr := strings.ToLower(err.Error())

	if isAuthenticationError(err) {
		if strings.Contains(errStr, "403") || strings.Contains(errStr, "forbidden") {
			return fmt.Errorf("GitHub token lacks required permissions - ensure the 'repo' scope is enabled: %w", err)
		}
		return fmt.Errorf("GitHub authentication failed - update your token with 'personamcp token set': %w", err)
	}

	if strings.Contains(errStr, "404") || strings.Contains(errStr, "not found") {
		return fmt.Errorf("repository not found - check the URL or ensure you have access: %s", gs.RemoteURL)
	}

	if isNetworkError(errStr) {
		return fmt.Errorf("network error during clone - check your internet connection and try again: %w", err)
	}

	return fmt.Errorf("failed to clone repository: %w", err)
}

func (gs GitSource) translateFetchError(err error) error {
	if isAuthenticationError(err) {
		return fmt.Errorf("GitHub token has expired or is invalid - update it with 'personamcp token set': %w", err)
	}
	if isNetworkError(strings.ToLower(err.Error())) {
		return fmt.Errorf("network error during fetch - the cached clone is still usable: %w", err)
	}
	return fmt.Errorf("failed to fetch repository updates: %w", err)
}

var authErrorPatterns = []string{
	"authentication required",
	"401",
	"unauthorized",
	"403",
	"forbidden",
}

func isAuthenticationError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, pattern := range authErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func isNetworkError(errStr string) bool {
	return strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "timeout")
}

// validateCloneDirectory classifies the clone target. Conflict and
// DifferentRepo are returned together with a descriptive error.
func (gs GitSource) validateCloneDirectory(clonePath, expectedRemoteURL string) (DirectoryStatus, error) {
	info, err := os.Stat(clonePath)
	if os.IsNotExist(err) {
		return DirectoryStatusEmpty, nil
	}
	if err != nil {
		return DirectoryStatusError, fmt.Errorf("cannot access directory %s: %w", clonePath, err)
	}
	if !info.IsDir() {
		return DirectoryStatusError, fmt.Errorf("path exists but is not a directory: %s", clonePath)
	}

	isEmpty, err := fileops.IsDirEmpty(clonePath)
	if err != nil {
		return DirectoryStatusError, fmt.Errorf("cannot check if directory is empty: %w", err)
	}
	if isEmpty {
		return DirectoryStatusEmpty, nil
	}

	currentRemote, err := getGitRemoteURL(clonePath)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return DirectoryStatusConflict, fmt.Errorf("directory contains non-git content: %s", clonePath)
		}
		return DirectoryStatusError, fmt.Errorf("cannot get current git remote URL: %w", err)
	}

	if normalizeGitURL(currentRemote) == normalizeGitURL(expectedRemoteURL) {
		return DirectoryStatusSameRepo, nil
	}
	return DirectoryStatusDifferentRepo, fmt.Errorf("directory contains different git repository (current: %s, expected: %s)",
		currentRemote, expectedRemoteURL)
}

// getGitRemoteURL returns the first URL of the origin remote.
func getGitRemoteURL(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("cannot open git repository %s: %w", repoPath, err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("cannot get origin remote: %w", err)
	}

	cfg := remote.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return "", fmt.Errorf("no URLs configured for origin remote")
	}
	return cfg.URLs[0], nil
}
