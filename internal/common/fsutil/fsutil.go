package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return p, nil
}

// ResolvePath expands '~' and makes path absolute relative to base when it is
// relative. An empty base means the working directory.
func ResolvePath(base, path string) (string, error) {
	p, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	if p == "" || filepath.IsAbs(p) {
		return p, nil
	}
	if base != "" {
		p = filepath.Join(base, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}
	return abs, nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// FileSize returns the size of a regular file, or 0 when it cannot be stat'ed.
func FileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return 0
	}
	return fi.Size()
}
