package dialog

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps dialog state and registrations in process memory.
// Intended for tests and development.
type MemoryStore struct {
	mu            sync.RWMutex
	states        map[int64]State
	registrations []Registration
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[int64]State)}
}

// Get returns a copy of the user's state, or nil when absent.
func (m *MemoryStore) Get(_ context.Context, userID int64) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[userID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// Create stores a new state; a second state for the same user is an error.
func (m *MemoryStore) Create(_ context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.states[state.UserID]; exists {
		return fmt.Errorf("dialog state already exists for user %d", state.UserID)
	}
	m.states[state.UserID] = *state
	return nil
}

// Update overwrites the existing state for the user.
func (m *MemoryStore) Update(_ context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.states[state.UserID]; !exists {
		return fmt.Errorf("no dialog state for user %d", state.UserID)
	}
	m.states[state.UserID] = *state
	return nil
}

// Delete removes the user's state if present.
func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

// CreateRegistration appends a completion record.
func (m *MemoryStore) CreateRegistration(_ context.Context, name, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = append(m.registrations, Registration{Name: name, Email: email})
	return nil
}

// Registrations returns a snapshot of stored completion records.
func (m *MemoryStore) Registrations() []Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Registration, len(m.registrations))
	copy(out, m.registrations)
	return out
}

// Len reports how many users currently have active state.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
