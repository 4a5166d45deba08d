// Package router classifies chat input, dispatches to the multi-agent
// backend, and degrades to a local assistant when the backend is down.
package router

import (
	"github.com/protoslabs/cellchat/internal/domain"
)

// Path names the route a turn took. Exactly one path appears per turn.
type Path string

const (
	PathDirectCommand     Path = "direct-command"
	PathAgent             Path = "agent"
	PathFallbackAssistant Path = "fallback-assistant"
)

// RoutingDecision is the classifier's verdict for one turn. Ephemeral:
// produced and consumed inside a single Handle call.
type RoutingDecision struct {
	AgentID     string
	MatchedRule string
	Confidence  float64
}

// DirectCommand is a deterministically recognized navigation or selection
// phrase. It is applied locally and never reaches the network.
type DirectCommand struct {
	Rule  string
	Reply string
	Delta domain.ContextDelta
	Clear bool
}

// FinalResponse is what the fallback controller hands back: always a
// response, from the agent, the local assistant, or the static
// unavailable message.
type FinalResponse struct {
	Text     string
	AgentID  string
	Delta    domain.ContextDelta
	Degraded bool
}

// Trace records which path a turn took, for observability and tests.
type Trace struct {
	Path        Path    `json:"path"`
	AgentID     string  `json:"agent_id,omitempty"`
	MatchedRule string  `json:"matched_rule,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	Degraded    bool    `json:"degraded,omitempty"`
}

// Result is the outcome of one handled turn.
type Result struct {
	Response string                 `json:"response"`
	Delta    domain.ContextDelta    `json:"delta"`
	Context  domain.ContextSnapshot `json:"context"`
	Trace    Trace                  `json:"trace"`
}
