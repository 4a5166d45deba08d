package domain

import "time"

// SessionRecord is the durable row persisted for a chat session. The live
// session state (history, context, turn lock) is owned by the session
// package; the record exists so a restarted host can resume its context.
type SessionRecord struct {
	ID        string          `json:"id"`
	Context   ContextSnapshot `json:"context"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
