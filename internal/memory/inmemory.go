package memory

import (
	"context"
	"sync"
)

// InMemoryStore keeps the record in process only, for tests and MEMORY_BACKEND=memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	state State
	saves int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{state: State{History: []Exchange{}}}
}

func (s *InMemoryStore) Load(_ context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.clone()
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *InMemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *InMemoryStore) Close() error { return nil }
