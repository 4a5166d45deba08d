// Package agent implements the HTTP client for the multi-agent backend.
package agent

import (
	"github.com/protoslabs/cellchat/internal/domain"
)

// ChatRequest is the wire payload for POST /chat on the backend. The full
// context snapshot travels with every request; history is bounded to the
// most recent messages to keep the payload small.
type ChatRequest struct {
	Message       string                 `json:"message"`
	Agent         string                 `json:"agent"`
	Context       domain.ContextSnapshot `json:"context"`
	RecentHistory []domain.Message       `json:"recent_history,omitempty"`
	SessionID     string                 `json:"session_id"`
}

// ChatResponse is the backend's reply. A reply with an empty Response field
// is treated as malformed.
type ChatResponse struct {
	Response       string              `json:"response"`
	Agent          string              `json:"agent"`
	Status         string              `json:"status,omitempty"`
	ContextUpdates domain.ContextDelta `json:"context_updates"`
}

// HealthResponse is the backend's liveness reply.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
