package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLifecycle(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	var f Files

	assert.Equal(t, Result{Text: "File report.txt created.", OK: true}, f.CreateFile(ctx, dir, "report.txt"))
	assert.FileExists(t, filepath.Join(dir, "report.txt"))
	assert.Equal(t, Result{Text: "File report.txt already exists."}, f.CreateFile(ctx, dir, "report.txt"))

	assert.True(t, f.CreateFolder(ctx, dir, "projects").OK)
	assert.DirExists(t, filepath.Join(dir, "projects"))
	assert.False(t, f.CreateFolder(ctx, dir, "projects").OK)

	assert.Equal(t, Result{Text: "Files in " + dir + ":\n- projects/\n- report.txt", OK: true}, f.ListFiles(ctx, dir))

	assert.False(t, f.DeleteFile(ctx, dir, "projects").OK)
	assert.False(t, f.DeleteFolder(ctx, dir, "report.txt").OK)

	assert.Equal(t, Result{Text: "File report.txt deleted.", OK: true}, f.DeleteFile(ctx, dir, "report.txt"))
	assert.Equal(t, Result{Text: "File report.txt does not exist."}, f.DeleteFile(ctx, dir, "report.txt"))
	assert.Equal(t, Result{Text: "Folder projects deleted.", OK: true}, f.DeleteFolder(ctx, dir, "projects"))

	assert.Equal(t, Result{Text: "The folder " + dir + " is empty.", OK: true}, f.ListFiles(ctx, dir))
}

func TestFilesStayInsideWorkspace(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "work")
	require.NoError(t, os.Mkdir(dir, 0o755))
	ctx := context.Background()
	var f Files

	for _, name := range []string{"../escape.txt", "/etc/passwd", ".", "", "a/../../b"} {
		res := f.CreateFile(ctx, dir, name)
		assert.False(t, res.OK, "name %q", name)
	}
	assert.NoFileExists(t, filepath.Join(root, "escape.txt"))

	require.NoError(t, os.Symlink(root, filepath.Join(dir, "link")))
	assert.False(t, f.CreateFile(ctx, dir, "link/../../x.txt").OK)
	assert.False(t, f.DeleteFolder(ctx, dir, "..").OK)
	assert.DirExists(t, dir)
}

func TestWorkspaceBaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ws")
	w, err := NewWorkspace(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	other := t.TempDir()
	require.NoError(t, w.SetBaseDir(other))
	want, err := filepath.EvalSymlinks(other)
	require.NoError(t, err)
	assert.Equal(t, want, w.BaseDir())

	assert.Error(t, w.SetBaseDir(filepath.Join(other, "missing")))
	file := filepath.Join(other, "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, w.SetBaseDir(file))
	assert.Equal(t, want, w.BaseDir())
}
