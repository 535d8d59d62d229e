package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves paths that include a tilde (~) to the user's home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}

// ValidatePath checks if the given path is a valid file path for reading.
func ValidatePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path stat error: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path %q is a directory, not a file", path)
	}

	if info.Mode()&os.ModeType != 0 {
		return fmt.Errorf("path %q is not a regular file", path)
	}
	return nil
}

// IsSymlinkToDir reports whether path is a symbolic link whose resolved
// destination is a directory. Such entries must never be descended into
// during target discovery.
func IsSymlinkToDir(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("path lstat error: %w", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return false, nil
	}
	resolved, err := os.Stat(path)
	if err != nil {
		// dangling symlink
		return false, nil
	}
	return resolved.IsDir(), nil
}

// CreateFolderIfNotExists creates the folder at the given path if it does not exist yet.
func CreateFolderIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create folder %q: %w", path, err)
		}
	}
	return nil
}
