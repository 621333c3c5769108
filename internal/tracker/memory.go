package tracker

import (
	"context"
	"sort"
	"sync"

	"github.com/floodline/hazard-etl/internal/domain"
)

// MemoryStore is a mutex-guarded in-process Store. It backs the CLI and
// tests, and single-instance deployments that do not need tracking to
// survive a restart.
type MemoryStore struct {
	mu     sync.Mutex
	states map[domain.EventKey]EventState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[domain.EventKey]EventState)}
}

func (m *MemoryStore) Get(_ context.Context, key domain.EventKey) (EventState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[key]
	if !ok {
		return EventState{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Put(_ context.Context, state EventState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[state.Key] = state
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]EventState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]EventState, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out, nil
}
