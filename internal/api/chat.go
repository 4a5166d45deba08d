package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/protoslabs/cellchat/internal/identity"
	"github.com/protoslabs/cellchat/internal/router"
)

// ChatRequest is the inbound payload for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// HandleChat handles POST /api/chat. The response is the routed result as
// JSON, or as SSE events when the client asks for an event stream.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if !h.rateLimiter.Allow(userID) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, defaultMaxRequestBodySize)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionKey := identity.ChatSessionKey(r.Context())
	reqID := chiMiddleware.GetReqID(r.Context())

	slog.Info("chat request",
		"user_id", userID,
		"session", sessionKey,
		"request_id", reqID,
		"message_length", len(req.Message),
	)

	result, err := h.router.Handle(r.Context(), sessionKey, req.Message)
	switch {
	case errors.Is(err, router.ErrEmptyMessage):
		Error(w, http.StatusBadRequest, "message is required")
		return
	case err != nil:
		// Only context cancellation reaches here; the client is gone.
		slog.Info("chat request abandoned", "session", sessionKey, "error", err)
		return
	}

	if wantsEventStream(r) {
		h.streamResult(w, result)
		return
	}
	JSON(w, http.StatusOK, result)
}

func wantsEventStream(r *http.Request) bool {
	if r.URL.Query().Get("stream") == "1" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// streamResult writes the routed result as a short SSE stream: one message
// event with the payload, then a done event. The frontend consumes both
// this and plain JSON with the same decode path.
func (h *Handler) streamResult(w http.ResponseWriter, result router.Result) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		slog.Warn("failed to marshal chat result", "error", err)
		if writeErr := writeSSE(w, "error", "failed to serialize response"); writeErr != nil {
			slog.Warn("failed to write SSE error event", "error", writeErr)
		}
		flusher.Flush()
		return
	}
	if err := writeSSE(w, "message", string(data)); err != nil {
		slog.Warn("failed to write SSE message event", "error", err)
		return
	}
	flusher.Flush()

	if err := writeSSE(w, "done", `{"status":"complete"}`); err != nil {
		slog.Warn("failed to write SSE done event", "error", err)
		return
	}
	flusher.Flush()
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
