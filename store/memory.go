package store

import "sync"

// MemoryStore keeps a snapshot in memory. Used in tests and when no data
// directory is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	state *State
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Load returns a copy of the saved state.
func (m *MemoryStore) Load() (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, ErrNotInitialized
	}
	return m.state.Clone(), nil
}

// Save stores a copy of s.
func (m *MemoryStore) Save(s *State) error {
	if s == nil {
		return ErrNilState
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s.Clone()
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
