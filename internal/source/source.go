// Package source resolves the named documents a persona is built from
// (persona Markdown, safety guidelines, worldbook JSON) to readable content.
//
// Callers never deal with install locations: a Locator is constructed once
// from configuration and handed to whichever component needs the bytes.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"personamcp/pkg/fileops"
)

// DefaultMaxSize bounds every file read through a FileLocator.
const DefaultMaxSize int64 = 10 * 1024 * 1024

// ErrUnavailable reports that a document could not be read at all: missing
// file, permission problem, failed validation or I/O error.
var ErrUnavailable = errors.New("source unavailable")

// Locator opens one named document.
type Locator interface {
	// Open returns a reader over the document content.
	Open(ctx context.Context) (io.ReadCloser, error)
	// String names the document for logs and error messages.
	String() string
}

// ReadAll opens loc and reads it fully. Every failure wraps ErrUnavailable.
func ReadAll(ctx context.Context, loc Locator) ([]byte, error) {
	if loc == nil {
		return nil, fmt.Errorf("%w: no locator configured", ErrUnavailable)
	}

	rc, err := loc.Open(ctx)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, loc, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, loc, err)
	}
	return data, nil
}

// FileLocator reads a file addressed relative to a bundle root. The file
// must stay inside Root and be at most MaxSize bytes.
type FileLocator struct {
	Root    string
	Path    string
	MaxSize int64
}

// NewFileLocator returns a FileLocator for path under root. An absolute path
// is used as-is and its own directory becomes the containment root.
func NewFileLocator(root, path string) FileLocator {
	if filepath.IsAbs(path) {
		return FileLocator{Root: filepath.Dir(path), Path: filepath.Base(path), MaxSize: DefaultMaxSize}
	}
	return FileLocator{Root: root, Path: path, MaxSize: DefaultMaxSize}
}

// Abs returns the absolute file path the locator reads.
func (l FileLocator) Abs() string {
	return filepath.Join(fileops.ExpandPath(l.Root), filepath.FromSlash(l.Path))
}

// Open validates the path and opens the file.
func (l FileLocator) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, l, err)
	}

	if err := fileops.ValidatePathSecurity(l.Path); err != nil {
		return nil, fmt.Errorf("%w: %s: path security: %v", ErrUnavailable, l, err)
	}

	abs := l.Abs()
	if err := fileops.ValidateFileInDirectory(abs, fileops.ExpandPath(l.Root)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, l, err)
	}

	maxSize := l.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := fileops.ValidateFileSizeLimit(abs, maxSize); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, l, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, l, err)
	}
	return f, nil
}

func (l FileLocator) String() string {
	return l.Abs()
}

// StaticLocator serves fixed content. Used for embedded documents and tests.
type StaticLocator struct {
	Name string
	Data []byte
}

func (l StaticLocator) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(l.Data)), nil
}

func (l StaticLocator) String() string {
	if l.Name == "" {
		return "static"
	}
	return l.Name
}
