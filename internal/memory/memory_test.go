package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastAppRoundTrip(t *testing.T) {
	m := openInMemory(t)
	_, ok := m.LastApp()
	assert.False(t, ok)

	require.NoError(t, m.UpdateLastApp(context.Background(), "chrome"))
	got, ok := m.LastApp()
	require.True(t, ok)
	assert.Equal(t, "chrome", got)

	require.NoError(t, m.UpdateLastApp(context.Background(), "chrome"))
	got, _ = m.LastApp()
	assert.Equal(t, "chrome", got)
}

func TestUpdateLastAppIgnoresBlank(t *testing.T) {
	m := openInMemory(t)
	require.NoError(t, m.UpdateLastApp(context.Background(), "notepad"))
	require.NoError(t, m.UpdateLastApp(context.Background(), "   "))
	got, _ := m.LastApp()
	assert.Equal(t, "notepad", got)
}

func TestHistoryCapEvictsOldestFirst(t *testing.T) {
	m := openInMemory(t)
	ctx := context.Background()

	var want []Exchange
	for i := 0; i < 25; i++ {
		e := Exchange{User: fmt.Sprintf("u%d", i), Agent: fmt.Sprintf("a%d", i)}
		require.NoError(t, m.AppendHistory(ctx, e.User, e.Agent))
		want = append(want, e)

		n := i + 1
		if n > HistoryCap {
			n = HistoryCap
		}
		assert.Len(t, m.Snapshot().History, n)
	}

	if diff := cmp.Diff(want[len(want)-HistoryCap:], m.RecentHistory(HistoryCap)); diff != "" {
		t.Fatalf("RecentHistory(10) mismatch (-want +got):\n%s", diff)
	}
}

func TestRecentHistoryWindow(t *testing.T) {
	m := openInMemory(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, m.AppendHistory(ctx, fmt.Sprintf("u%d", i), "ok"))
	}

	assert.Len(t, m.RecentHistory(0), 3)
	assert.Len(t, m.RecentHistory(50), 3)

	last := m.RecentHistory(1)
	require.Len(t, last, 1)
	assert.Equal(t, "u2", last[0].User)

	for i := 3; i < 8; i++ {
		require.NoError(t, m.AppendHistory(ctx, fmt.Sprintf("u%d", i), "ok"))
	}
	def := m.RecentHistory(0)
	require.Len(t, def, DefaultRecent)
	assert.Equal(t, "u3", def[0].User)
	assert.Equal(t, "u7", def[len(def)-1].User)
}

func TestPersistFailureKeepsInMemoryState(t *testing.T) {
	store := &failingStore{err: errors.New("disk full")}
	m, err := Open(context.Background(), store)
	require.NoError(t, err)

	err = m.UpdateLastApp(context.Background(), "code")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	got, ok := m.LastApp()
	require.True(t, ok)
	assert.Equal(t, "code", got)

	err = m.AppendHistory(context.Background(), "open code", "Opening code.")
	assert.ErrorIs(t, err, ErrPersist)
	assert.Len(t, m.RecentHistory(5), 1)
}

func TestEveryMutationPersists(t *testing.T) {
	store := NewInMemoryStore()
	m, err := Open(context.Background(), store)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.UpdateLastApp(ctx, "chrome"))
	require.NoError(t, m.AppendHistory(ctx, "open chrome", "Opening chrome."))
	assert.Equal(t, 2, store.Saves())

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, persisted.LastApp)
	assert.Equal(t, "chrome", *persisted.LastApp)
	assert.Equal(t, []Exchange{{User: "open chrome", Agent: "Opening chrome."}}, persisted.History)
}

func TestResetClearsState(t *testing.T) {
	m := openInMemory(t)
	ctx := context.Background()
	require.NoError(t, m.UpdateLastApp(ctx, "chrome"))
	require.NoError(t, m.AppendHistory(ctx, "hi", "hello"))

	require.NoError(t, m.Reset(ctx))
	_, ok := m.LastApp()
	assert.False(t, ok)
	assert.Empty(t, m.RecentHistory(10))
}

func TestOpenTrimsOversizedHistory(t *testing.T) {
	store := NewInMemoryStore()
	var st State
	for i := 0; i < 14; i++ {
		st.History = append(st.History, Exchange{User: fmt.Sprintf("u%d", i)})
	}
	require.NoError(t, store.Save(context.Background(), st))

	m, err := Open(context.Background(), store)
	require.NoError(t, err)
	h := m.RecentHistory(HistoryCap)
	require.Len(t, h, HistoryCap)
	assert.Equal(t, "u4", h[0].User)
}

func TestConcurrentAppendsAreSerialised(t *testing.T) {
	store := NewInMemoryStore()
	m, err := Open(context.Background(), store)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.AppendHistory(context.Background(), fmt.Sprintf("u%d", i), "ok")
			if i%2 == 0 {
				_ = m.UpdateLastApp(context.Background(), fmt.Sprintf("app%d", i))
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.RecentHistory(HistoryCap), HistoryCap)
	assert.Equal(t, 60, store.Saves())

	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(m.Snapshot(), persisted); diff != "" {
		t.Fatalf("persisted state diverged from memory (-mem +store):\n%s", diff)
	}
}

func openInMemory(t *testing.T) *Memory {
	t.Helper()
	m, err := Open(context.Background(), NewInMemoryStore())
	require.NoError(t, err)
	return m
}

type failingStore struct {
	err error
}

func (s *failingStore) Load(context.Context) (State, error) { return State{}, nil }
func (s *failingStore) Save(context.Context, State) error  { return s.err }
func (s *failingStore) Close() error                       { return nil }
