package router

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/protoslabs/cellchat/internal/agent"
	"github.com/protoslabs/cellchat/internal/domain"
)

// DefaultProbeInterval bounds how long a cached health verdict is trusted
// before the backend is probed again.
const DefaultProbeInterval = 30 * time.Second

type healthStatus int

const (
	statusUnknown healthStatus = iota
	statusHealthy
	statusUnhealthy
)

type healthEntry struct {
	status    healthStatus
	checkedAt time.Time
}

// healthCache stores the last known backend health per agent. It is
// advisory: concurrent turns may probe at the same time and the last
// write wins, which is harmless because every verdict is fresh.
type healthCache struct {
	mu      sync.RWMutex
	entries map[string]healthEntry
}

func newHealthCache() *healthCache {
	return &healthCache{entries: make(map[string]healthEntry)}
}

func (h *healthCache) get(agentID string) healthEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entries[agentID]
}

func (h *healthCache) set(agentID string, status healthStatus, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[agentID] = healthEntry{status: status, checkedAt: now}
}

// FallbackController wraps dispatch with health tracking and degradation.
// It always returns a response: live agent first, local assistant when the
// backend is down, and a static message if even the assistant fails.
type FallbackController struct {
	backend       agent.Backend
	assistant     Assistant
	health        *healthCache
	probeInterval time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// NewFallbackController wires a controller over backend and assistant.
// probeInterval <= 0 selects DefaultProbeInterval.
func NewFallbackController(backend agent.Backend, assistant Assistant, probeInterval time.Duration, logger *slog.Logger) *FallbackController {
	if probeInterval <= 0 {
		probeInterval = DefaultProbeInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackController{
		backend:       backend,
		assistant:     assistant,
		health:        newHealthCache(),
		probeInterval: probeInterval,
		now:           time.Now,
		logger:        logger,
	}
}

// Route executes a routing decision. Known-unhealthy agents are not
// dispatched to until a fresh probe says otherwise; a failed dispatch
// marks the agent unhealthy and degrades the same turn.
func (f *FallbackController) Route(ctx context.Context, decision RoutingDecision, text string, snapshot domain.ContextSnapshot, history []domain.Message, sessionID string) FinalResponse {
	if f.usable(ctx, decision.AgentID) {
		resp, err := f.backend.Chat(ctx, agent.ChatRequest{
			Message:       text,
			Agent:         decision.AgentID,
			Context:       snapshot,
			RecentHistory: history,
			SessionID:     sessionID,
		})
		if err == nil {
			f.health.set(decision.AgentID, statusHealthy, f.now())
			return FinalResponse{
				Text:    resp.Response,
				AgentID: decision.AgentID,
				Delta:   resp.ContextUpdates,
			}
		}
		if ctx.Err() != nil {
			// Caller cancelled; do not condemn the backend for it.
			return FinalResponse{Text: UnavailableMessage, Degraded: true}
		}
		f.health.set(decision.AgentID, statusUnhealthy, f.now())
		f.logger.Warn("agent dispatch failed, degrading",
			"agent", decision.AgentID, "error", err)
	}
	return f.degrade(ctx, text, snapshot)
}

// usable decides whether to attempt a live dispatch. A fresh healthy
// verdict passes, a fresh unhealthy verdict blocks, and anything stale or
// unknown triggers a probe whose outcome decides.
func (f *FallbackController) usable(ctx context.Context, agentID string) bool {
	entry := f.health.get(agentID)
	now := f.now()
	if entry.status != statusUnknown && now.Sub(entry.checkedAt) < f.probeInterval {
		return entry.status == statusHealthy
	}

	if err := f.backend.Probe(ctx); err != nil {
		f.health.set(agentID, statusUnhealthy, now)
		f.logger.Warn("agent probe failed", "agent", agentID, "error", err)
		return false
	}
	f.health.set(agentID, statusHealthy, now)
	return true
}

func (f *FallbackController) degrade(ctx context.Context, text string, snapshot domain.ContextSnapshot) FinalResponse {
	reply, err := f.assistant.Respond(ctx, text, snapshot)
	if err != nil {
		f.logger.Error("fallback assistant failed", "error", err)
		return FinalResponse{Text: UnavailableMessage, Degraded: true}
	}
	return FinalResponse{Text: reply, Degraded: true}
}
