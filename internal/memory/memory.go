// Package memory holds the short-term conversational context: the last application the
// user opened or switched to, and a rolling window of recent exchanges.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Memory is the process-wide conversation memory. Every mutation is written through to
// the Store before the call returns.
type Memory struct {
	mu    sync.Mutex
	store Store
	state State
}

// Open loads the persisted record from store.
func Open(ctx context.Context, store Store) (*Memory, error) {
	st, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}
	return &Memory{store: store, state: st.normalize()}, nil
}

// LastApp returns the most recently opened or focused application.
func (m *Memory) LastApp() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.LastApp == nil {
		return "", false
	}
	return *m.state.LastApp, true
}

// UpdateLastApp records name as the last application. A returned error wraps ErrPersist;
// the new value is kept in memory regardless.
func (m *Memory) UpdateLastApp(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastApp = &name
	return m.persistLocked(ctx)
}

// AppendHistory records one exchange, evicting the oldest beyond HistoryCap.
func (m *Memory) AppendHistory(ctx context.Context, user, response string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.History = append(m.state.History, Exchange{User: user, Agent: response})
	if over := len(m.state.History) - HistoryCap; over > 0 {
		m.state.History = append([]Exchange(nil), m.state.History[over:]...)
	}
	return m.persistLocked(ctx)
}

// RecentHistory returns up to n of the latest exchanges, most recent last.
func (m *Memory) RecentHistory(n int) []Exchange {
	if n <= 0 {
		n = DefaultRecent
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.state.History
	if n > len(h) {
		n = len(h)
	}
	out := make([]Exchange, n)
	copy(out, h[len(h)-n:])
	return out
}

// Snapshot returns a copy of the whole record.
func (m *Memory) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Reset clears the record and persists the empty state.
func (m *Memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{History: []Exchange{}}
	return m.persistLocked(ctx)
}

func (m *Memory) persistLocked(ctx context.Context) error {
	if err := m.store.Save(ctx, m.state.clone()); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Close releases the underlying store.
func (m *Memory) Close() error {
	return m.store.Close()
}
