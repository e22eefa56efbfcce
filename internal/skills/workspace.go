package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrOutsideWorkspace is returned when a name resolves outside the working directory.
var ErrOutsideWorkspace = errors.New("path resolves outside the working directory")

// Workspace holds the mutable working directory that file operations run against.
type Workspace struct {
	mu   sync.RWMutex
	base string
}

// NewWorkspace creates dir when missing and uses it as the working directory. An empty dir
// means the process working directory.
func NewWorkspace(dir string) (*Workspace, error) {
	abs, err := absDir(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{base: abs}, nil
}

// BaseDir returns the current working directory.
func (w *Workspace) BaseDir() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.base
}

// SetBaseDir switches the working directory. The directory must already exist.
func (w *Workspace) SetBaseDir(dir string) error {
	abs, err := absDir(dir)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("set workspace: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("set workspace: %s is not a directory", abs)
	}
	w.mu.Lock()
	w.base = abs
	w.mu.Unlock()
	return nil
}

func absDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs(%s): %w", dir, err)
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return abs, nil
}

// resolveInside joins name onto root and rejects absolute names, parent traversal, symlink
// escapes and the root itself.
func resolveInside(root, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || filepath.IsAbs(name) {
		return "", ErrOutsideWorkspace
	}
	if r, err := filepath.EvalSymlinks(root); err == nil {
		root = r
	}
	candidate := filepath.Join(root, filepath.Clean(name))
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		candidate = filepath.Join(parent, filepath.Base(candidate))
	}

	rel, err := filepath.Rel(root, candidate)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ErrOutsideWorkspace
	}
	return candidate, nil
}
