package memory

import (
	"context"
	"errors"
)

const (
	// HistoryCap is the number of exchanges kept; older entries are evicted first.
	HistoryCap = 10
	// DefaultRecent is the window returned by RecentHistory when n <= 0.
	DefaultRecent = 5
)

// ErrPersist wraps storage failures. The in-memory state stays authoritative when it is returned.
var ErrPersist = errors.New("memory persistence failed")

// Exchange is one user utterance and the agent's response.
type Exchange struct {
	User  string `json:"user"`
	Agent string `json:"agent"`
}

// State is the persisted memory record.
type State struct {
	LastApp *string    `json:"last_app"`
	History []Exchange `json:"conversation_history"`
}

func (s State) clone() State {
	out := State{History: make([]Exchange, len(s.History))}
	copy(out.History, s.History)
	if s.LastApp != nil {
		v := *s.LastApp
		out.LastApp = &v
	}
	return out
}

// normalize drops history beyond the cap, keeping the most recent entries.
func (s State) normalize() State {
	if s.History == nil {
		s.History = []Exchange{}
	}
	if len(s.History) > HistoryCap {
		s.History = append([]Exchange(nil), s.History[len(s.History)-HistoryCap:]...)
	}
	if s.LastApp != nil && *s.LastApp == "" {
		s.LastApp = nil
	}
	return s
}

// Store loads and persists the memory record.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
	Close() error
}
