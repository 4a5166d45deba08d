package session

import (
	"sync"
	"time"

	"github.com/protoslabs/cellchat/internal/domain"
)

// Manager owns the live session set. Sessions are created on first
// interaction and live for the process lifetime unless explicitly reset or
// expired by Sweep.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// GetOrCreate returns the live session for id, creating it on first use.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	now := m.now()
	s = newSession(id, domain.NewSnapshot(now), now)
	m.sessions[id] = s
	return s
}

// Restore registers a session seeded from a persisted record, keeping its
// saved workflow context. An already-live session wins.
func (m *Manager) Restore(rec domain.SessionRecord) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[rec.ID]; ok {
		return s
	}
	s := newSession(rec.ID, rec.Context, m.now())
	s.createdAt = rec.CreatedAt
	m.sessions[rec.ID] = s
	return s
}

// Get returns the live session for id, if any.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove destroys the live session for id.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle longer than ttl and returns how many were
// dropped.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		s.mu.RLock()
		idle := s.updatedAt.Before(cutoff)
		s.mu.RUnlock()
		if idle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
