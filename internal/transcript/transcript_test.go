package transcript

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/protoslabs/cellchat/internal/domain"
)

func TestLoggerWritesPerSessionNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(Config{Enabled: true, Dir: dir, QueueSize: 16}, slog.Default())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	now := time.Now().UTC()
	logger.Record("sess-1",
		domain.Message{Role: domain.RoleUser, Text: "select NMC811", Timestamp: now},
		domain.Message{Role: domain.RoleSystem, Text: "Selected NMC811 as the cathode material.", Timestamp: now},
	)

	path := filepath.Join(dir, "sess-1.ndjson")
	lines := waitForLogLines(t, path, 2)

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if first.Role != "user" || first.Text != "select NMC811" {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if first.SessionID != "sess-1" {
		t.Fatalf("unexpected session id: %q", first.SessionID)
	}
}

func TestDisabledLoggerIsNoOp(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Enabled: false}, slog.Default())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Record("sess-1", domain.Message{Role: domain.RoleUser, Text: "hi", Timestamp: time.Now()})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func waitForLogLines(t *testing.T, path string, want int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) >= want {
				return lines
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d lines in %s", want, path)
	return nil
}
