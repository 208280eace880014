package repository

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing/object"

	"personamcp/internal/logging"
)

// initOrigin creates a repository with one committed persona file that
// clones can use as their origin.
func initOrigin(t *testing.T) (string, *git.Repository) {
	t.Helper()

	originPath := filepath.Join(t.TempDir(), "origin")
	repo, err := git.PlainInit(originPath, false)
	if err != nil {
		t.Fatalf("failed to initialize origin repo: %v", err)
	}
	commitFile(t, repo, originPath, "luoluo.md", "# Luoluo v1\n")
	return originPath, repo
}

func commitFile(t *testing.T, repo *git.Repository, repoPath, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(repoPath, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := worktree.Add(name); err != nil {
		t.Fatalf("failed to add %s: %v", name, err)
	}
	_, err = worktree.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestGitSource_PrepareClonesIntoEmptyDirectory(t *testing.T) {
	originPath, _ := initOrigin(t)
	clonePath := filepath.Join(t.TempDir(), "bundles", "personas")
	logger, _ := logging.NewTestLogger()

	gs := NewGitSource(originPath, nil, clonePath)
	got, err := gs.Prepare(logger)
	if err != nil {
		t.Fatalf("Prepare() unexpected error: %v", err)
	}
	if got != clonePath {
		t.Errorf("Prepare() path = %s, want %s", got, clonePath)
	}
	if content := readFile(t, filepath.Join(clonePath, "luoluo.md")); content != "# Luoluo v1\n" {
		t.Errorf("cloned content = %q", content)
	}
}

func TestGitSource_PrepareResetsToOrigin(t *testing.T) {
	originPath, origin := initOrigin(t)
	clonePath := filepath.Join(t.TempDir(), "personas")
	logger, _ := logging.NewTestLogger()

	gs := NewGitSource(originPath, nil, clonePath)
	if _, err := gs.Prepare(logger); err != nil {
		t.Fatalf("first Prepare() failed: %v", err)
	}

	commitFile(t, origin, originPath, "luoluo.md", "# Luoluo v2\n")

	if _, err := gs.Prepare(logger); err != nil {
		t.Fatalf("second Prepare() failed: %v", err)
	}
	if content := readFile(t, filepath.Join(clonePath, "luoluo.md")); content != "# Luoluo v2\n" {
		t.Errorf("content after update = %q, want v2", content)
	}
}

func TestGitSource_PrepareKeepsDirtyWorktree(t *testing.T) {
	originPath, origin := initOrigin(t)
	clonePath := filepath.Join(t.TempDir(), "personas")
	logger, buf := logging.NewTestLogger()

	gs := NewGitSource(originPath, nil, clonePath)
	if _, err := gs.Prepare(logger); err != nil {
		t.Fatalf("first Prepare() failed: %v", err)
	}

	local := filepath.Join(clonePath, "luoluo.md")
	if err := os.WriteFile(local, []byte("# local edit\n"), 0644); err != nil {
		t.Fatalf("failed to edit clone: %v", err)
	}
	commitFile(t, origin, originPath, "luoluo.md", "# Luoluo v2\n")

	if _, err := gs.Prepare(logger); err != nil {
		t.Fatalf("Prepare() with dirty tree failed: %v", err)
	}
	if content := readFile(t, local); content != "# local edit\n" {
		t.Errorf("dirty file was overwritten: %q", content)
	}
	if !strings.Contains(buf.String(), "uncommitted changes") {
		t.Errorf("expected dirty worktree warning in log, got: %s", buf.String())
	}

	dirty, err := IsDirty(clonePath)
	if err != nil {
		t.Fatalf("IsDirty() error: %v", err)
	}
	if !dirty {
		t.Error("IsDirty() = false, want true")
	}
}

func TestGitSource_UpdateReportsDirtyWorktree(t *testing.T) {
	originPath, _ := initOrigin(t)
	clonePath := filepath.Join(t.TempDir(), "personas")

	gs := NewGitSource(originPath, nil, clonePath)
	if _, err := gs.Prepare(nil); err != nil {
		t.Fatalf("Prepare() failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(clonePath, "scratch.md"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write untracked file: %v", err)
	}

	if err := gs.Update(nil); err != ErrDirtyWorktree {
		t.Errorf("Update() error = %v, want ErrDirtyWorktree", err)
	}
}

func TestGitSource_UpdateMissingClone(t *testing.T) {
	gs := NewGitSource("/srv/git/personas.git", nil, filepath.Join(t.TempDir(), "absent"))
	err := gs.Update(nil)
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Update() error = %v, want missing repository error", err)
	}
}

func TestGitSource_PrepareRefusesNonGitDirectory(t *testing.T) {
	clonePath := t.TempDir()
	if err := os.WriteFile(filepath.Join(clonePath, "notes.txt"), []byte("keep me"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	gs := NewGitSource("https://github.com/example/personas.git", nil, clonePath)
	_, err := gs.Prepare(nil)
	if err == nil {
		t.Fatal("Prepare() should fail for a directory with non-git content")
	}
	if !strings.Contains(err.Error(), "directory conflict") {
		t.Errorf("Prepare() error = %v, want directory conflict", err)
	}
	if content := readFile(t, filepath.Join(clonePath, "notes.txt")); content != "keep me" {
		t.Error("existing content was modified")
	}
}

func TestGitSource_PrepareRefusesDifferentRepository(t *testing.T) {
	clonePath := filepath.Join(t.TempDir(), "personas")
	repo, err := git.PlainInit(clonePath, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	commitFile(t, repo, clonePath, "other.md", "other")
	if _, err := repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://github.com/someone/else.git"},
	}); err != nil {
		t.Fatalf("failed to create remote: %v", err)
	}

	gs := NewGitSource("git@github.com:example/personas.git", nil, clonePath)
	_, err = gs.Prepare(nil)
	if err == nil || !strings.Contains(err.Error(), "different git repository") {
		t.Errorf("Prepare() error = %v, want different repository conflict", err)
	}
}

func TestGitSource_ValidateCloneDirectory(t *testing.T) {
	gs := GitSource{}
	remote := "https://github.com/example/personas.git"

	t.Run("missing directory", func(t *testing.T) {
		status, err := gs.validateCloneDirectory(filepath.Join(t.TempDir(), "nope"), remote)
		if err != nil || status != DirectoryStatusEmpty {
			t.Errorf("got (%v, %v), want (%v, nil)", status, err, DirectoryStatusEmpty)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		status, err := gs.validateCloneDirectory(t.TempDir(), remote)
		if err != nil || status != DirectoryStatusEmpty {
			t.Errorf("got (%v, %v), want (%v, nil)", status, err, DirectoryStatusEmpty)
		}
	})

	t.Run("regular file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, nil, 0644); err != nil {
			t.Fatal(err)
		}
		status, err := gs.validateCloneDirectory(file, remote)
		if err == nil || status != DirectoryStatusError {
			t.Errorf("got (%v, %v), want DirectoryStatusError", status, err)
		}
	})

	t.Run("same repository over ssh", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "clone")
		repo, err := git.PlainInit(dir, false)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := repo.CreateRemote(&config.RemoteConfig{
			Name: "origin",
			URLs: []string{"git@github.com:example/personas.git"},
		}); err != nil {
			t.Fatal(err)
		}
		status, err := gs.validateCloneDirectory(dir, remote)
		if err != nil || status != DirectoryStatusSameRepo {
			t.Errorf("got (%v, %v), want (%v, nil)", status, err, DirectoryStatusSameRepo)
		}
	})
}

func TestGitSource_NormalizeRemoteURL(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		want    string
		wantErr bool
	}{
		{"ssh", "git@github.com:example/personas.git", "https://github.com/example/personas.git", false},
		{"https without suffix", "https://github.com/example/personas", "https://github.com/example/personas.git", false},
		{"local path", "/srv/git/personas", "/srv/git/personas", false},
		{"file url", "file:///srv/git/personas", "file:///srv/git/personas", false},
		{"missing repo", "https://github.com/example", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GitSource{RemoteURL: tt.remote}.normalizeRemoteURL()
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeRemoteURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("normalizeRemoteURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGitSource_PrepareInvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		source GitSource
		errMsg string
	}{
		{"empty url", GitSource{Path: "/tmp/x"}, "remote URL cannot be empty"},
		{"empty path", GitSource{RemoteURL: "https://github.com/a/b.git"}, "local path cannot be empty"},
		{"bad url", GitSource{RemoteURL: "not a url", Path: "/tmp/x"}, "invalid remote URL"},
		{"traversal", GitSource{RemoteURL: "https://github.com/a/b.git", Path: "/tmp/../etc/x"}, "invalid local path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.source.Prepare(nil)
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Prepare() error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestIsAuthenticationError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"authentication required", true},
		{"unexpected client error: 401 Unauthorized", true},
		{"403 Forbidden", true},
		{"repository not found", false},
		{"connection refused", false},
	}

	for _, tt := range tests {
		if got := isAuthenticationError(errString(tt.msg)); got != tt.want {
			t.Errorf("isAuthenticationError(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
	if isAuthenticationError(nil) {
		t.Error("isAuthenticationError(nil) = true")
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestDirectoryStatus_String(t *testing.T) {
	tests := map[DirectoryStatus]string{
		DirectoryStatusEmpty:         "empty or doesn't exist",
		DirectoryStatusSameRepo:      "same git repository",
		DirectoryStatusDifferentRepo: "different git repository",
		DirectoryStatusConflict:      "contains non-git content",
		DirectoryStatusError:         "validation error",
		DirectoryStatus(99):          "unknown status",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("DirectoryStatus(%d).String() = %q, want %q", status, got, want)
		}
	}
}
