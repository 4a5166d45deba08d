package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/protoslabs/cellchat/internal/domain"
)

func testClient(t *testing.T, handler http.Handler, timeout time.Duration) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL:        srv.URL,
		RequestTimeout: timeout,
		ProbeTimeout:   timeout,
	}, nil)
	return c, srv
}

func TestChatSuccess(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Agent != "cell_designer" {
			t.Errorf("expected agent cell_designer, got %q", req.Agent)
		}
		_ = json.NewEncoder(w).Encode(ChatResponse{
			Response: "Use a pouch form factor for flexibility.",
			Agent:    req.Agent,
			Status:   "success",
		})
	}), 2*time.Second)

	resp, err := c.Chat(context.Background(), ChatRequest{
		Message:   "design a flexible cell",
		Agent:     "cell_designer",
		Context:   domain.NewSnapshot(time.Now()),
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Response == "" || resp.Agent != "cell_designer" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestChatTimeout(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}), 50*time.Millisecond)

	_, err := c.Chat(context.Background(), ChatRequest{Message: "hi", Agent: "task_coordinator"})
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
	if de.Reason != ReasonTimeout {
		t.Fatalf("expected timeout reason, got %q", de.Reason)
	}
}

func TestChatUnreachable(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{
		BaseURL:        "http://127.0.0.1:1", // nothing listens here
		RequestTimeout: time.Second,
	}, nil)

	_, err := c.Chat(context.Background(), ChatRequest{Message: "hi", Agent: "task_coordinator"})
	var de *DispatchError
	if !errors.As(err, &de) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
	if de.Reason != ReasonUnreachable {
		t.Fatalf("expected unreachable reason, got %q", de.Reason)
	}
}

func TestChatBadResponse(t *testing.T) {
	t.Parallel()

	cases := map[string]http.HandlerFunc{
		"non-success status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		},
		"missing response text": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(ChatResponse{Agent: "task_coordinator"})
		},
	}

	for name, handler := range cases {
		handler := handler
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			c, _ := testClient(t, handler, 2*time.Second)
			_, err := c.Chat(context.Background(), ChatRequest{Message: "hi", Agent: "task_coordinator"})
			var de *DispatchError
			if !errors.As(err, &de) {
				t.Fatalf("expected DispatchError, got %v", err)
			}
			if de.Reason != ReasonBadResponse {
				t.Fatalf("expected bad-response reason, got %q", de.Reason)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	healthy, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy", Service: "cell-development-direct-agent"})
	}), time.Second)
	if err := healthy.Probe(context.Background()); err != nil {
		t.Fatalf("probe against healthy backend failed: %v", err)
	}

	sick, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}), time.Second)
	if err := sick.Probe(context.Background()); err == nil {
		t.Fatal("expected probe failure for unhealthy backend")
	}
}
