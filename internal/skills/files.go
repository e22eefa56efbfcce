package skills

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// Files implements the workspace file operations. The directory is passed on every call.
type Files struct{}

func (Files) CreateFile(_ context.Context, dir, name string) Result {
	path, err := resolveInside(dir, name)
	if err != nil {
		return fail(fmt.Sprintf("Cannot create %s: %v.", name, err))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fail(fmt.Sprintf("File %s already exists.", name))
	}
	if err != nil {
		return fail(fmt.Sprintf("Failed to create file %s: %v", name, err))
	}
	if err := f.Close(); err != nil {
		return fail(fmt.Sprintf("Failed to create file %s: %v", name, err))
	}
	return ok(fmt.Sprintf("File %s created.", name))
}

func (Files) DeleteFile(_ context.Context, dir, name string) Result {
	path, err := resolveInside(dir, name)
	if err != nil {
		return fail(fmt.Sprintf("Cannot delete %s: %v.", name, err))
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fail(fmt.Sprintf("File %s does not exist.", name))
	}
	if err != nil {
		return fail(fmt.Sprintf("Failed to delete file %s: %v", name, err))
	}
	if info.IsDir() {
		return fail(fmt.Sprintf("%s is a folder, not a file.", name))
	}
	if err := os.Remove(path); err != nil {
		return fail(fmt.Sprintf("Failed to delete file %s: %v", name, err))
	}
	return ok(fmt.Sprintf("File %s deleted.", name))
}

func (Files) CreateFolder(_ context.Context, dir, name string) Result {
	path, err := resolveInside(dir, name)
	if err != nil {
		return fail(fmt.Sprintf("Cannot create %s: %v.", name, err))
	}
	err = os.Mkdir(path, 0o755)
	if errors.Is(err, fs.ErrExist) {
		return fail(fmt.Sprintf("Folder %s already exists.", name))
	}
	if err != nil {
		return fail(fmt.Sprintf("Failed to create folder %s: %v", name, err))
	}
	return ok(fmt.Sprintf("Folder %s created.", name))
}

func (Files) DeleteFolder(_ context.Context, dir, name string) Result {
	path, err := resolveInside(dir, name)
	if err != nil {
		return fail(fmt.Sprintf("Cannot delete %s: %v.", name, err))
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fail(fmt.Sprintf("Folder %s does not exist.", name))
	}
	if err != nil {
		return fail(fmt.Sprintf("Failed to delete folder %s: %v", name, err))
	}
	if !info.IsDir() {
		return fail(fmt.Sprintf("%s is a file, not a folder.", name))
	}
	if err := os.RemoveAll(path); err != nil {
		return fail(fmt.Sprintf("Failed to delete folder %s: %v", name, err))
	}
	return ok(fmt.Sprintf("Folder %s deleted.", name))
}

func (Files) ListFiles(_ context.Context, dir string) Result {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fail(fmt.Sprintf("Failed to list files in %s: %v", dir, err))
	}
	if len(entries) == 0 {
		return ok(fmt.Sprintf("The folder %s is empty.", dir))
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() {
			n += "/"
		}
		names = append(names, n)
	}
	sort.Strings(names)
	return ok(bulleted(fmt.Sprintf("Files in %s:", dir), names))
}
