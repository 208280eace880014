// Package fileops provides the path and file validation used before persona
// bundle files are read.
//
// Every file a persona references is resolved against a bundle root and must
// pass, in order:
//
//  1. ValidatePathSecurity - rejects empty paths and ".." traversal segments
//  2. ValidateFileInDirectory - the file (and any symlink target) stays inside the root
//  3. ValidateFileSizeLimit - the file is not larger than the configured limit
//
// # Example
//
//	abs := filepath.Join(root, rel)
//	if err := fileops.ValidatePathSecurity(rel); err != nil {
//	    return fmt.Errorf("path security: %w", err)
//	}
//	if err := fileops.ValidateFileInDirectory(abs, root); err != nil {
//	    return fmt.Errorf("directory containment: %w", err)
//	}
//	if err := fileops.ValidateFileSizeLimit(abs, 10*1024*1024); err != nil {
//	    return fmt.Errorf("file size: %w", err)
//	}
//
// Bundle roots themselves are checked with ValidateStoragePath, which refuses
// system directories.
package fileops
