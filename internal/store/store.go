// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/protoslabs/cellchat/internal/domain"
)

// Repository defines the interface for persisting chat sessions and
// conversation history.
type Repository interface {
	// GetSession retrieves a session record by id. Returns (nil, nil) when
	// the session is unknown.
	GetSession(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// SaveSession creates or updates a session record, including its
	// serialized workflow context.
	SaveSession(ctx context.Context, rec domain.SessionRecord) error

	// AppendMessages appends conversation messages for a session in order.
	AppendMessages(ctx context.Context, sessionID string, msgs []domain.Message) error

	// GetMessages retrieves the most recent messages for a session, oldest
	// first. limit <= 0 returns everything.
	GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// DeleteMessages removes all persisted messages for a session.
	DeleteMessages(ctx context.Context, sessionID string) error

	// DeleteSession removes a session record and its messages.
	DeleteSession(ctx context.Context, sessionID string) error

	// CleanupExpiredSessions removes sessions idle longer than ttl, with
	// their messages, and reports how many sessions were removed.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
