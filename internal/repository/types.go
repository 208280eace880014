package repository

import (
	"errors"
	"fmt"
	"strings"

	"personamcp/internal/logging"
)

// Source abstracts where persona bundles live. Implementations resolve to a
// local directory that persona paths are relative to.
//
// Implementations:
//   - LocalSource: validates an existing directory (see local.go)
//   - GitSource: clones or updates a Git repository (see git.go)
type Source interface {
	// Prepare validates and prepares the source, returning the absolute
	// path of the bundle root. logger may be nil.
	Prepare(logger *logging.AppLogger) (localPath string, err error)
}

// Type identifies a repository backend.
type Type string

const (
	// TypeLocal is a directory on disk.
	TypeLocal Type = "local"
	// TypeGitHub is a GitHub-hosted (or any HTTPS) Git repository.
	TypeGitHub Type = "github"
)

// String returns the string representation of the repository type.
func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t is a known type.
func (t Type) IsValid() bool {
	return t == TypeLocal || t == TypeGitHub
}

// Entry is the configured bundle repository.
//
// For TypeLocal, Path is the bundle directory. For TypeGitHub, RemoteURL is
// cloned into Path, or into DefaultClonePath(RemoteURL) when Path is empty.
type Entry struct {
	Type      Type   `yaml:"type"`
	Path      string `yaml:"path,omitempty"`
	RemoteURL string `yaml:"remote_url,omitempty"`
	Branch    string `yaml:"branch,omitempty"`
}

// IsRemote returns true if this repository is a remote Git repository.
func (e Entry) IsRemote() bool {
	return e.Type == TypeGitHub
}

// IsLocal returns true if this repository is a local directory.
func (e Entry) IsLocal() bool {
	return e.Type == TypeLocal
}

// String returns a string representation of the entry for logging.
func (e Entry) String() string {
	if e.IsRemote() {
		return fmt.Sprintf("Repository{Type: %s, RemoteURL: %s, Branch: %s, Path: %s}", e.Type, e.RemoteURL, e.Branch, e.Path)
	}
	return fmt.Sprintf("Repository{Type: %s, Path: %s}", e.Type, e.Path)
}

// Validate checks the entry without touching the filesystem or network.
func (e Entry) Validate() error {
	if !e.Type.IsValid() {
		return fmt.Errorf("invalid repository type %q (want %q or %q)", e.Type, TypeLocal, TypeGitHub)
	}

	switch e.Type {
	case TypeLocal:
		if strings.TrimSpace(e.Path) == "" {
			return errors.New("local repository requires a path")
		}
		return ValidatePath(e.Path)

	default:
		if strings.TrimSpace(e.RemoteURL) == "" {
			return errors.New("github repository requires a remote_url")
		}
		if !isLocalURL(e.RemoteURL) {
			if _, err := ParseGitURL(e.RemoteURL); err != nil {
				return fmt.Errorf("invalid remote_url: %w", err)
			}
		}
		if e.Path != "" {
			return ValidatePath(e.Path)
		}
		return nil
	}
}

// NewSource builds the Source described by e.
func NewSource(e Entry) (Source, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	if e.IsLocal() {
		return NewLocalSource(e.Path), nil
	}

	path := e.Path
	if path == "" {
		derived, err := DefaultClonePath(e.RemoteURL)
		if err != nil {
			return nil, err
		}
		path = derived
	}

	var branch *string
	if e.Branch != "" {
		b := e.Branch
		branch = &b
	}
	return NewGitSource(e.RemoteURL, branch, path), nil
}
