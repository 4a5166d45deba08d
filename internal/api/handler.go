// Package api provides HTTP handlers for the cell development chat API.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/protoslabs/cellchat/internal/agent"
	"github.com/protoslabs/cellchat/internal/identity"
	"github.com/protoslabs/cellchat/internal/registry"
	"github.com/protoslabs/cellchat/internal/router"
	"github.com/protoslabs/cellchat/internal/session"
	"github.com/protoslabs/cellchat/internal/store"
)

// defaultMaxRequestBodySize is the maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

// Handler provides the chat API endpoints.
type Handler struct {
	router      *router.Router
	sessions    *session.Manager
	repo        store.Repository
	registry    *registry.Registry
	backend     agent.Backend
	rateLimiter *RateLimiter
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(rt *router.Router, sessions *session.Manager, repo store.Repository, reg *registry.Registry, backend agent.Backend, limiter *RateLimiter) *Handler {
	return &Handler{
		router:      rt,
		sessions:    sessions,
		repo:        repo,
		registry:    reg,
		backend:     backend,
		rateLimiter: limiter,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RegisterRoutes registers the chat API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/agents", h.HandleAgents)
		r.Post("/chat", h.HandleChat)
		r.Get("/history", h.HandleHistory)
		r.Get("/context", h.HandleContext)
		r.Post("/session/reset", h.HandleReset)
		r.Delete("/session", h.HandleDeleteSession)
	})
	r.Get("/ws/chat", h.HandleChatSocket)
}

// HandleHealth handles GET /api/health. The backend verdict is a live probe
// with a short deadline so a wedged backend cannot stall the endpoint.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	resp := map[string]interface{}{
		"status":        "ok",
		"service":       "cellchat",
		"database":      "up",
		"backend":       "up",
		"live_sessions": h.sessions.Len(),
	}

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["database"] = "down"
			status = http.StatusServiceUnavailable
		}
	}

	probeCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.backend.Probe(probeCtx); err != nil {
		// Chat still works degraded, so backend-down alone is not a 503.
		resp["status"] = "degraded"
		resp["backend"] = "down"
	}

	JSON(w, status, resp)
}

// HandleAgents handles GET /api/agents.
func (h *Handler) HandleAgents(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"agents":  h.registry.All(),
		"default": registry.DefaultAgentID,
	})
}

// HandleHistory handles GET /api/history. Live sessions answer from memory;
// otherwise the persisted history is consulted.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	key := identity.ChatSessionKey(r.Context())

	if sess, ok := h.sessions.Get(key); ok {
		JSON(w, http.StatusOK, map[string]interface{}{"messages": sess.History()})
		return
	}

	if h.repo != nil {
		msgs, err := h.repo.GetMessages(r.Context(), key, 0)
		if err != nil {
			Error(w, http.StatusInternalServerError, "failed to load history")
			return
		}
		JSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"messages": []struct{}{}})
}

// HandleContext handles GET /api/context.
func (h *Handler) HandleContext(w http.ResponseWriter, r *http.Request) {
	key := identity.ChatSessionKey(r.Context())
	sess := h.sessions.GetOrCreate(key)
	JSON(w, http.StatusOK, map[string]interface{}{"context": sess.Context()})
}

// HandleReset handles POST /api/session/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	key := identity.ChatSessionKey(r.Context())
	snap, err := h.router.Reset(r.Context(), key)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"status": "reset", "context": snap})
}

// HandleDeleteSession handles DELETE /api/session: the session is dropped
// entirely, in memory and in the store. The next chat turn starts fresh.
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	key := identity.ChatSessionKey(r.Context())
	h.sessions.Remove(key)
	if h.repo != nil {
		if err := h.repo.DeleteSession(r.Context(), key); err != nil {
			Error(w, http.StatusInternalServerError, "failed to delete session")
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
