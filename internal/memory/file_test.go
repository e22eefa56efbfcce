package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "memory.json"))
	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st.LastApp)
	assert.Empty(t, st.History)
}

func TestFileStoreLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent", "memory.json")
	s := NewFileStore(path)
	m, err := Open(context.Background(), s)
	require.NoError(t, err)

	require.NoError(t, m.AppendHistory(context.Background(), "list running apps", "Running applications:\n- Terminal"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	lastApp, ok := doc["last_app"]
	require.True(t, ok, "last_app key must be present")
	assert.Nil(t, lastApp)

	history, ok := doc["conversation_history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)
	entry := history[0].(map[string]any)
	assert.Equal(t, "list running apps", entry["user"])
	assert.Equal(t, "Running applications:\n- Terminal", entry["agent"])
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	ctx := context.Background()

	first, err := Open(ctx, NewFileStore(path))
	require.NoError(t, err)
	require.NoError(t, first.UpdateLastApp(ctx, "firefox"))
	require.NoError(t, first.AppendHistory(ctx, "open firefox", "Opening firefox."))

	second, err := Open(ctx, NewFileStore(path))
	require.NoError(t, err)
	got, ok := second.LastApp()
	require.True(t, ok)
	assert.Equal(t, "firefox", got)
	assert.Equal(t, []Exchange{{User: "open firefox", Agent: "Opening firefox."}}, second.RecentHistory(5))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(context.Background(), NewFileStore(path))
	assert.Error(t, err)
}

func TestNewStoreSelectsBackend(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "m.json")
	s, err := NewStore(ctx, Options{Backend: "auto", Path: path})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)
	assert.Equal(t, path, s.(*FileStore).Path())

	s, err = NewStore(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &InMemoryStore{}, s)

	_, err = NewStore(ctx, Options{Backend: "file"})
	assert.Error(t, err)

	_, err = NewStore(ctx, Options{Backend: "redis"})
	assert.Error(t, err)
}
