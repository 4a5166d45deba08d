package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

// Backend is the dispatch surface the router depends on. Implemented by
// Client; tests substitute fakes.
type Backend interface {
	// Chat sends one chat turn to the named agent. Failures are always a
	// *DispatchError; no retries are attempted here.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Probe performs a side-effect-free liveness check of the backend.
	Probe(ctx context.Context) error
}

// Client talks JSON over HTTP to the direct agent server.
type Client struct {
	baseURL      string
	httpc        *http.Client
	timeout      time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
}

// Config holds configuration for the backend client.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	ProbeTimeout   time.Duration
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:        getEnv("AGENT_BASE_URL", "http://localhost:9004"),
		RequestTimeout: 30 * time.Second,
		ProbeTimeout:   5 * time.Second,
	}
}

// NewClient creates a client for the agent backend. No connection is
// attempted here; reachability is established by Probe.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultConfig().ProbeTimeout
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpc:        &http.Client{},
		timeout:      cfg.RequestTimeout,
		probeTimeout: cfg.ProbeTimeout,
		logger:       logger,
	}
}

// Chat sends one turn to the backend. The per-call timeout bounds the whole
// exchange so a stalled backend cannot hold a session's turn open.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &DispatchError{Reason: ReasonBadResponse, Err: fmt.Errorf("encode request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &DispatchError{Reason: ReasonUnreachable, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, &DispatchError{Reason: transportReason(err), Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close chat response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the log, then discard.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		c.logger.Warn("agent backend returned non-success status",
			"status", resp.StatusCode,
			"agent", req.Agent,
			"body", string(snippet),
		)
		return nil, &DispatchError{
			Reason: ReasonBadResponse,
			Err:    fmt.Errorf("backend status %d", resp.StatusCode),
		}
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, &DispatchError{Reason: ReasonBadResponse, Err: fmt.Errorf("decode response: %w", err)}
	}
	if chatResp.Response == "" {
		return nil, &DispatchError{Reason: ReasonBadResponse, Err: errors.New("response text missing")}
	}
	return &chatResp, nil
}

// Probe checks backend liveness via GET /health. It has no side effects.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("probe %s: %w", c.baseURL, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close probe response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe %s: status %d", c.baseURL, resp.StatusCode)
	}
	return nil
}

// transportReason maps a transport error to its dispatch reason.
func transportReason(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonUnreachable
}

// Helper function.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

var _ Backend = (*Client)(nil)
