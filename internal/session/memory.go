package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store, used in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	if time.Now().After(sess.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()

		return nil, ErrNotFound
	}

	return &sess, nil
}

func (m *MemoryStore) Put(_ context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.ID] = *sess

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)

	return nil
}

// Compile-time check.
var _ Store = (*MemoryStore)(nil)
