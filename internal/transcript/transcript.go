// Package transcript writes per-session conversation transcripts as NDJSON
// files. Unlike the in-memory history, transcripts are never trimmed.
package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/protoslabs/cellchat/internal/domain"
)

// Config controls transcript logging.
type Config struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Event is one transcript line.
type Event struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	AgentID   string    `json:"agent_id,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger appends transcript events to <dir>/<session_id>.ndjson. Writes are
// asynchronous; a full queue drops events rather than stalling a chat turn.
type Logger struct {
	cfg    Config
	queue  chan Event
	done   chan struct{}
	logger *slog.Logger

	closeOnce sync.Once
}

// New creates a transcript logger. A disabled config returns a logger whose
// Record is a no-op, so callers never need to branch.
func New(cfg Config, logger *slog.Logger) (*Logger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Logger{cfg: cfg, logger: logger}
	if !cfg.Enabled {
		return l, nil
	}

	if cfg.Dir == "" {
		return nil, fmt.Errorf("transcript dir is required when enabled")
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	l.cfg = cfg
	l.queue = make(chan Event, cfg.QueueSize)
	l.done = make(chan struct{})
	go l.run()
	return l, nil
}

// Record enqueues transcript events for a turn's messages.
func (l *Logger) Record(sessionID string, msgs ...domain.Message) {
	if !l.cfg.Enabled {
		return
	}
	for _, m := range msgs {
		ev := Event{
			SessionID: sessionID,
			Role:      string(m.Role),
			AgentID:   m.AgentID,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		}
		select {
		case l.queue <- ev:
		default:
			l.logger.Warn("transcript queue full, dropping event", "session", sessionID)
		}
	}
}

// Close drains the queue and stops the writer.
func (l *Logger) Close() error {
	if !l.cfg.Enabled {
		return nil
	}
	l.closeOnce.Do(func() {
		close(l.queue)
		<-l.done
	})
	return nil
}

func (l *Logger) run() {
	defer close(l.done)
	for ev := range l.queue {
		if err := l.append(ev); err != nil {
			l.logger.Warn("transcript write failed",
				"session", ev.SessionID, "error", err)
		}
	}
}

func (l *Logger) append(ev Event) error {
	path := filepath.Join(l.cfg.Dir, ev.SessionID+".ndjson")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open transcript file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			l.logger.Warn("close transcript file failed", "error", closeErr)
		}
	}()

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode transcript event: %w", err)
	}
	line = append(line, '\n')
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write transcript line: %w", err)
	}
	return nil
}
