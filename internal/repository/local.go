package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"personamcp/internal/logging"
	"personamcp/pkg/fileops"
)

// LocalSource serves bundles straight from a directory the user maintains.
type LocalSource struct {
	// Path is an absolute or home-relative (~/...) directory.
	Path string
}

// NewLocalSource creates a LocalSource for path.
func NewLocalSource(path string) LocalSource {
	return LocalSource{Path: path}
}

// Prepare resolves the directory and returns it as an absolute path. The
// directory must already exist; it is never created.
func (ls LocalSource) Prepare(logger *logging.AppLogger) (string, error) {
	if logger != nil {
		logger.Info("Preparing local bundle source", "path", ls.Path)
	}

	dir, err := resolveLocalDir(ls.Path)
	if err != nil {
		return "", err
	}

	if logger != nil {
		logger.Debug("Local bundle source validated", "resolved_path", dir)
	}
	return dir, nil
}

func (ls LocalSource) String() string {
	return "local:" + ls.Path
}

// resolveLocalDir expands, cleans and checks a bundle directory path.
func resolveLocalDir(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("local source path cannot be empty")
	}

	dir := filepath.Clean(fileops.ExpandPath(raw))
	if err := fileops.ValidateStoragePath(dir); err != nil {
		return "", fmt.Errorf("invalid local source path: %w", err)
	}

	switch info, err := os.Stat(dir); {
	case os.IsNotExist(err):
		return "", fmt.Errorf("local source directory does not exist: %s", dir)
	case err != nil:
		return "", fmt.Errorf("cannot access local source directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("local source path is not a directory: %s", dir)
	}

	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir, nil
}
