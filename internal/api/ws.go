package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/protoslabs/cellchat/internal/identity"
	"github.com/protoslabs/cellchat/internal/router"
)

// wsTurnTimeout bounds a single websocket chat turn, covering dispatch and
// persistence.
const wsTurnTimeout = 60 * time.Second

// socketError is the error frame sent to websocket clients.
type socketError struct {
	Error string `json:"error"`
}

// HandleChatSocket handles the /ws/chat channel. Each inbound frame is one
// chat turn; the routed result is written back as a JSON frame. Turns on a
// single socket run sequentially, matching the per-session ordering the
// router enforces anyway.
func (h *Handler) HandleChatSocket(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessionKey := identity.ChatSessionKey(r.Context())

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("websocket close", "error", closeErr)
		}
	}()

	slog.Info("chat socket connected", "user_id", userID, "session", sessionKey)

	for {
		var req ChatRequest
		if err := wsjson.Read(r.Context(), ws, &req); err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Info("chat socket closed", "session", sessionKey)
				return
			}
			slog.Warn("chat socket read failed", "session", sessionKey, "error", err)
			return
		}

		if !h.rateLimiter.Allow(userID) {
			if err := wsjson.Write(r.Context(), ws, socketError{Error: "rate limit exceeded"}); err != nil {
				return
			}
			continue
		}

		turnCtx, cancel := context.WithTimeout(r.Context(), wsTurnTimeout)
		result, err := h.router.Handle(turnCtx, sessionKey, req.Message)
		cancel()
		if err != nil {
			if errors.Is(err, router.ErrEmptyMessage) {
				if writeErr := wsjson.Write(r.Context(), ws, socketError{Error: "message is required"}); writeErr != nil {
					return
				}
				continue
			}
			slog.Info("chat socket turn abandoned", "session", sessionKey, "error", err)
			return
		}

		if err := wsjson.Write(r.Context(), ws, result); err != nil {
			slog.Warn("chat socket write failed", "session", sessionKey, "error", err)
			return
		}
	}
}
