// Package session manages live chat sessions: per-session workflow context,
// append-only conversation history, and the turn lock that keeps each
// session's turns strictly sequential.
package session

import (
	"sync"
	"time"

	"github.com/protoslabs/cellchat/internal/domain"
)

// maxHistory bounds the in-memory conversation log. The persisted transcript
// is not trimmed.
const maxHistory = 50

// Session holds the live state of one conversation. Turns are serialized by
// the turn lock: the router holds it for the duration of a handle call, so
// context merges and history appends land in input order.
type Session struct {
	ID string

	turnMu sync.Mutex

	mu        sync.RWMutex
	snapshot  domain.ContextSnapshot
	history   []domain.Message
	createdAt time.Time
	updatedAt time.Time
}

func newSession(id string, snapshot domain.ContextSnapshot, now time.Time) *Session {
	return &Session{
		ID:        id,
		snapshot:  snapshot,
		createdAt: now,
		updatedAt: now,
	}
}

// BeginTurn blocks until this session has no other turn in flight.
func (s *Session) BeginTurn() { s.turnMu.Lock() }

// EndTurn releases the turn lock.
func (s *Session) EndTurn() { s.turnMu.Unlock() }

// Context returns the current workflow snapshot.
func (s *Session) Context() domain.ContextSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// MergeContext folds a delta into the workflow snapshot via the
// monotonic-additive merge rule. No-op for an empty delta.
func (s *Session) MergeContext(delta domain.ContextDelta, now time.Time) error {
	if delta.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.snapshot.Merge(delta, now)
	if err != nil {
		return err
	}
	s.snapshot = next
	s.updatedAt = now
	return nil
}

// Append adds messages to the history in order. The in-memory log keeps only
// the most recent entries.
func (s *Session) Append(msgs ...domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
	if n := len(msgs); n > 0 {
		s.updatedAt = msgs[n-1].Timestamp
	}
}

// History returns a copy of the in-memory conversation log.
func (s *Session) History() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Recent returns the last n messages, oldest first.
func (s *Session) Recent(n int) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.history) == 0 {
		return nil
	}
	if n > len(s.history) {
		n = len(s.history)
	}
	out := make([]domain.Message, n)
	copy(out, s.history[len(s.history)-n:])
	return out
}

// Clear drops the history and resets the workflow snapshot to defaults.
func (s *Session) Clear(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.snapshot = domain.NewSnapshot(now)
	s.updatedAt = now
}

// Record produces the durable representation of this session.
func (s *Session) Record() domain.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SessionRecord{
		ID:        s.ID,
		Context:   s.snapshot,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}
