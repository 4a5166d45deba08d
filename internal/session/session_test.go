package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/protoslabs/cellchat/internal/domain"
)

func TestHistoryAppendsInOrder(t *testing.T) {
	t.Parallel()

	m := NewManager()
	s := m.GetOrCreate("sess-1")

	now := time.Now()
	turns := 5
	for i := 0; i < turns; i++ {
		s.Append(
			domain.Message{Role: domain.RoleUser, Text: fmt.Sprintf("question %d", i), Timestamp: now},
			domain.Message{Role: domain.RoleAssistant, Text: fmt.Sprintf("answer %d", i), Timestamp: now},
		)
	}

	history := s.History()
	if len(history) != turns*2 {
		t.Fatalf("expected %d messages, got %d", turns*2, len(history))
	}
	for i := 0; i < turns; i++ {
		if history[2*i].Role != domain.RoleUser || history[2*i].Text != fmt.Sprintf("question %d", i) {
			t.Fatalf("message %d out of order: %+v", 2*i, history[2*i])
		}
		if history[2*i+1].Role != domain.RoleAssistant {
			t.Fatalf("message %d should be a response: %+v", 2*i+1, history[2*i+1])
		}
	}
}

func TestHistoryIsCapped(t *testing.T) {
	t.Parallel()

	s := NewManager().GetOrCreate("sess-cap")
	now := time.Now()
	for i := 0; i < maxHistory+20; i++ {
		s.Append(domain.Message{Role: domain.RoleUser, Text: fmt.Sprintf("m%d", i), Timestamp: now})
	}
	history := s.History()
	if len(history) != maxHistory {
		t.Fatalf("expected capped history of %d, got %d", maxHistory, len(history))
	}
	if history[len(history)-1].Text != fmt.Sprintf("m%d", maxHistory+19) {
		t.Fatalf("cap dropped the wrong end: %q", history[len(history)-1].Text)
	}
}

func TestRecentReturnsTail(t *testing.T) {
	t.Parallel()

	s := NewManager().GetOrCreate("sess-recent")
	now := time.Now()
	for i := 0; i < 10; i++ {
		s.Append(domain.Message{Role: domain.RoleUser, Text: fmt.Sprintf("m%d", i), Timestamp: now})
	}

	recent := s.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(recent))
	}
	if recent[0].Text != "m7" || recent[2].Text != "m9" {
		t.Fatalf("unexpected tail: %+v", recent)
	}
	if got := s.Recent(100); len(got) != 10 {
		t.Fatalf("oversized window should return whole history, got %d", len(got))
	}
}

func TestConcurrentSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	m := NewManager()
	const perSession = 20
	var wg sync.WaitGroup
	for _, id := range []string{"sess-a", "sess-b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s := m.GetOrCreate(id)
			for i := 0; i < perSession; i++ {
				s.BeginTurn()
				s.Append(
					domain.Message{Role: domain.RoleUser, Text: fmt.Sprintf("%s-%d", id, i), Timestamp: time.Now()},
					domain.Message{Role: domain.RoleAssistant, Text: "ok", Timestamp: time.Now()},
				)
				s.EndTurn()
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"sess-a", "sess-b"} {
		s, ok := m.Get(id)
		if !ok {
			t.Fatalf("session %s missing", id)
		}
		history := s.History()
		if len(history) != perSession*2 {
			t.Fatalf("session %s: expected %d messages, got %d", id, perSession*2, len(history))
		}
		seq := 0
		for i, msg := range history {
			if msg.Role != domain.RoleUser {
				continue
			}
			want := fmt.Sprintf("%s-%d", id, seq)
			if msg.Text != want {
				t.Fatalf("session %s message %d: expected %q, got %q", id, i, want, msg.Text)
			}
			seq++
		}
	}
}

func TestClearResetsHistoryAndContext(t *testing.T) {
	t.Parallel()

	s := NewManager().GetOrCreate("sess-clear")
	now := time.Now()
	if err := s.MergeContext(domain.ContextDelta{Screen: domain.ScreenCellDesign}, now); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	s.Append(domain.Message{Role: domain.RoleUser, Text: "hi", Timestamp: now})

	s.Clear(now)
	if len(s.History()) != 0 {
		t.Fatal("expected empty history after clear")
	}
	if s.Context().Screen != domain.ScreenHome {
		t.Fatalf("expected home screen after clear, got %q", s.Context().Screen)
	}
}

func TestRestoreKeepsPersistedContext(t *testing.T) {
	t.Parallel()

	m := NewManager()
	created := time.Now().Add(-time.Hour)
	snap := domain.NewSnapshot(created)
	snap, err := snap.Merge(domain.ContextDelta{
		Screen:    domain.ScreenCathodeMaterials,
		Materials: map[string]string{"cathode": "NCA"},
	}, created)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	s := m.Restore(domain.SessionRecord{ID: "sess-restore", Context: snap, CreatedAt: created})
	got := s.Context()
	if got.Screen != domain.ScreenCathodeMaterials || got.Materials["cathode"] != "NCA" {
		t.Fatalf("restored context lost state: %+v", got)
	}
}
