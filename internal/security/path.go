// Package security confines file paths supplied by clients to one directory.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that resolve outside the root.
var ErrOutsideRoot = errors.New("path is outside the configured directory")

// PathValidator resolves client paths against a root directory and rejects
// any that escape it, following symlinks where they exist.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve configured directory: %w", err)
	}
	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute root directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path. Relative paths are taken
// relative to the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	abs = filepath.Clean(abs)

	if !v.contains(abs) || !v.contains(realPath(abs)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return abs, nil
}

// ResolveInput resolves path and requires an existing regular file.
func (v *PathValidator) ResolveInput(path string) (string, error) {
	abs, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory: %s", path)
	}
	return abs, nil
}

// ResolveOutput resolves path for writing a file with extension ext. The
// parent directory must already exist.
func (v *PathValidator) ResolveOutput(path, ext string) (string, error) {
	abs, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(abs), ext) {
		return "", fmt.Errorf("output must have extension %s: %s", ext, path)
	}
	info, err := os.Stat(filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("output parent is not a directory: %s", filepath.Dir(abs))
	}
	return abs, nil
}

// contains reports whether path is the root or below it, comparing against
// both the root as given and its symlink-resolved form.
func (v *PathValidator) contains(path string) bool {
	for _, dir := range []string{v.root, realPath(v.root)} {
		if path == dir || strings.HasPrefix(path, withSeparator(dir)) {
			return true
		}
	}
	return false
}

// realPath resolves symlinks in the longest existing prefix of path.
func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(realPath(parent), filepath.Base(path))
}

func withSeparator(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}
