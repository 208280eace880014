package fileops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ValidatePathSecurity performs static validation on a bundle-relative path.
// It does not touch the filesystem.
//
// The function rejects:
//   - empty or whitespace-only paths
//   - any ".." path segment, before or after cleaning
//   - absolute paths that point into reserved system directories
func ValidatePathSecurity(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if hasTraversalSegment(path) {
		return fmt.Errorf("path traversal not allowed")
	}

	cleanPath := filepath.Clean(path)
	if hasTraversalSegment(cleanPath) {
		return fmt.Errorf("path traversal not allowed")
	}

	if filepath.IsAbs(cleanPath) && IsReservedDirectory(cleanPath) {
		return fmt.Errorf("path points into a reserved directory")
	}

	return nil
}

// hasTraversalSegment reports whether any separator-delimited segment is "..".
func hasTraversalSegment(path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}

// ValidateFileInDirectory checks that filePath is a regular file inside baseDir.
// Symlinks are resolved and their targets must also stay inside baseDir.
//
// Usage example:
//
//	err := fileops.ValidateFileInDirectory("/bundles/luoluo/persona.md", "/bundles")
//	if err != nil {
//	    return fmt.Errorf("file validation failed: %w", err)
//	}
func ValidateFileInDirectory(filePath, baseDir string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("cannot resolve file path: %w", err)
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("cannot resolve base directory: %w", err)
	}

	if !isWithin(absBaseDir, absFilePath) {
		return fmt.Errorf("file is not within base directory")
	}

	info, err := os.Lstat(absFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filepath.Base(filePath))
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(absFilePath)
		if err != nil {
			return fmt.Errorf("cannot resolve symlink: %w", err)
		}

		// The base may itself sit behind a symlink (macOS /var -> /private/var).
		resolvedBase, err := filepath.EvalSymlinks(absBaseDir)
		if err != nil {
			resolvedBase = absBaseDir
		}
		if !isWithin(resolvedBase, resolved) {
			return fmt.Errorf("symlink resolves outside base directory")
		}

		info, err = os.Stat(resolved)
		if err != nil {
			return fmt.Errorf("cannot access symlink target: %w", err)
		}
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file")
	}

	return nil
}

// isWithin reports whether target is base or a descendant of base.
func isWithin(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// ValidateFileSizeLimit checks that filePath exists and is at most maxSize bytes.
func ValidateFileSizeLimit(filePath string, maxSize int64) error {
	if maxSize <= 0 {
		return fmt.Errorf("invalid size limit: %d", maxSize)
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filepath.Base(filePath))
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if fileInfo.Size() > maxSize {
		return fmt.Errorf("file size %d bytes exceeds limit %d bytes", fileInfo.Size(), maxSize)
	}

	return nil
}

// ExpandPath expands a path that starts with "~/" to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// IsReservedDirectory reports whether path is, or lives under, a system
// directory that must never be used as a bundle root.
func IsReservedDirectory(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	absPath = filepath.Clean(absPath)

	if absPath == "/" || absPath == "\\" || strings.EqualFold(absPath, "C:\\") {
		return true
	}

	for _, reserved := range reservedDirectories() {
		if strings.EqualFold(absPath, reserved) {
			return true
		}
		prefix := strings.ToLower(reserved) + string(os.PathSeparator)
		if strings.HasPrefix(strings.ToLower(absPath), prefix) {
			return true
		}
	}

	return false
}

func reservedDirectories() []string {
	if runtime.GOOS == "windows" {
		return []string{
			"C:\\Windows",
			"C:\\Program Files",
			"C:\\Program Files (x86)",
		}
	}
	return []string{
		"/bin",
		"/boot",
		"/dev",
		"/etc",
		"/lib",
		"/proc",
		"/sbin",
		"/sys",
		"/usr",
	}
}

// ValidateStoragePath checks that path is usable as a bundle root directory:
// non-empty, absolute or home-relative, free of traversal and outside
// reserved directories (also after resolving symlinks).
func ValidateStoragePath(path string) error {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return fmt.Errorf("storage directory cannot be empty")
	}

	if hasTraversalSegment(trimmedPath) {
		return fmt.Errorf("path traversal not allowed")
	}

	expandedPath := ExpandPath(trimmedPath)
	if !filepath.IsAbs(expandedPath) {
		return fmt.Errorf("path must be absolute or relative to home directory (~)")
	}

	if resolved, err := filepath.EvalSymlinks(expandedPath); err == nil {
		if IsReservedDirectory(resolved) {
			return fmt.Errorf("path resolves to reserved directory")
		}
	}

	if IsReservedDirectory(expandedPath) {
		return fmt.Errorf("cannot use system or reserved directories")
	}

	return nil
}

// IsDirEmpty reports whether the directory at path has no entries.
func IsDirEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}

// SanitizeIdentifier reduces identifier to lowercase ASCII letters, digits and
// underscores so it can be embedded in MCP tool names. Runs of other
// characters collapse to a single underscore.
//
//	clean, _ := fileops.SanitizeIdentifier("Luo-Luo v2", 64)
//	// clean == "luo_luo_v2"
func SanitizeIdentifier(identifier string, maxLength int) (string, error) {
	if strings.TrimSpace(identifier) == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(identifier) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}

	result := strings.Trim(b.String(), "_")
	if maxLength > 0 && len(result) > maxLength {
		result = strings.Trim(result[:maxLength], "_")
	}

	if result == "" {
		return "", fmt.Errorf("identifier becomes empty after sanitization")
	}

	return result, nil
}
