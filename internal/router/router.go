package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/protoslabs/cellchat/internal/domain"
	"github.com/protoslabs/cellchat/internal/session"
)

// DefaultHistoryWindow is how many recent messages accompany a dispatch.
const DefaultHistoryWindow = 10

// ErrEmptyMessage rejects blank input before any routing happens.
var ErrEmptyMessage = errors.New("message is empty")

// Persister durably records session state and conversation history.
// The router treats persistence as best effort: a write failure is logged
// and the turn still completes from in-memory state.
type Persister interface {
	GetSession(ctx context.Context, sessionID string) (*domain.SessionRecord, error)
	SaveSession(ctx context.Context, rec domain.SessionRecord) error
	AppendMessages(ctx context.Context, sessionID string, msgs []domain.Message) error
	DeleteMessages(ctx context.Context, sessionID string) error
}

// Recorder receives finalized turn messages for transcript logging.
type Recorder interface {
	Record(sessionID string, msgs ...domain.Message)
}

// Router is the single entry point for chat turns. Every turn runs the
// same sequence: interpret, classify, dispatch or degrade, merge, append,
// persist. Turns within a session are serialized by the session turn lock;
// turns across sessions run concurrently.
type Router struct {
	sessions      *session.Manager
	interp        *Interpreter
	classifier    *Classifier
	fallback      *FallbackController
	store         Persister
	transcript    Recorder
	historyWindow int
	now           func() time.Time
	logger        *slog.Logger
}

// Options configures a Router. Sessions, Classifier, and Fallback are
// required; Store and Transcript may be nil to disable persistence and
// transcript logging.
type Options struct {
	Sessions      *session.Manager
	Classifier    *Classifier
	Fallback      *FallbackController
	Store         Persister
	Transcript    Recorder
	HistoryWindow int
	Logger        *slog.Logger
}

// New builds a Router from opts.
func New(opts Options) *Router {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Router{
		sessions:      opts.Sessions,
		interp:        NewInterpreter(),
		classifier:    opts.Classifier,
		fallback:      opts.Fallback,
		store:         opts.Store,
		transcript:    opts.Transcript,
		historyWindow: opts.HistoryWindow,
		now:           time.Now,
		logger:        opts.Logger,
	}
}

// Handle processes one chat turn for a session and always yields exactly
// one of the three paths: direct command, live agent, or fallback
// assistant. A turn whose context is cancelled during dispatch is
// abandoned: no merge, no append, error returned.
func (r *Router) Handle(ctx context.Context, sessionID, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyMessage
	}

	sess := r.lookup(ctx, sessionID)
	sess.BeginTurn()
	defer sess.EndTurn()

	userMsg := domain.Message{Role: domain.RoleUser, Text: text, Timestamp: r.now()}

	if cmd, ok := r.interp.Interpret(text); ok {
		return r.handleCommand(ctx, sess, userMsg, cmd)
	}

	snapshot := sess.Context()
	decision := r.classifier.Classify(text, snapshot)
	final := r.fallback.Route(ctx, decision, text, snapshot, sess.Recent(r.historyWindow), sess.ID)

	if err := ctx.Err(); err != nil {
		r.logger.Info("turn abandoned", "session", sess.ID, "error", err)
		return Result{}, err
	}

	if !final.Delta.Empty() {
		if err := sess.MergeContext(final.Delta, r.now()); err != nil {
			// Agent-declared updates are untrusted; drop them, keep the reply.
			r.logger.Warn("rejecting context updates from agent",
				"agent", final.AgentID, "error", err)
			final.Delta = domain.ContextDelta{}
		}
	}

	reply := domain.Message{
		Role:      domain.RoleAssistant,
		Text:      final.Text,
		AgentID:   final.AgentID,
		Timestamp: r.now(),
	}
	sess.Append(userMsg, reply)
	r.persist(ctx, sess, userMsg, reply)

	trace := Trace{
		Path:        PathAgent,
		AgentID:     final.AgentID,
		MatchedRule: decision.MatchedRule,
		Confidence:  decision.Confidence,
	}
	if final.Degraded {
		trace.Path = PathFallbackAssistant
		trace.AgentID = ""
		trace.Degraded = true
	}
	return Result{
		Response: final.Text,
		Delta:    final.Delta,
		Context:  sess.Context(),
		Trace:    trace,
	}, nil
}

// handleCommand applies a recognized direct command locally. No agent is
// consulted and no network is touched.
func (r *Router) handleCommand(ctx context.Context, sess *session.Session, userMsg domain.Message, cmd DirectCommand) (Result, error) {
	trace := Trace{Path: PathDirectCommand, MatchedRule: cmd.Rule}

	if cmd.Clear {
		sess.Clear(r.now())
		if r.store != nil {
			if err := r.store.DeleteMessages(ctx, sess.ID); err != nil {
				r.logger.Warn("clearing persisted history failed", "session", sess.ID, "error", err)
			}
			if err := r.store.SaveSession(ctx, sess.Record()); err != nil {
				r.logger.Warn("saving session failed", "session", sess.ID, "error", err)
			}
		}
		return Result{Response: cmd.Reply, Context: sess.Context(), Trace: trace}, nil
	}

	if err := sess.MergeContext(cmd.Delta, r.now()); err != nil {
		// Command deltas come from the catalog; a merge failure is a bug.
		return Result{}, err
	}
	reply := domain.Message{Role: domain.RoleSystem, Text: cmd.Reply, Timestamp: r.now()}
	sess.Append(userMsg, reply)
	r.persist(ctx, sess, userMsg, reply)

	return Result{
		Response: cmd.Reply,
		Delta:    cmd.Delta,
		Context:  sess.Context(),
		Trace:    trace,
	}, nil
}

// Reset clears a session's history and workflow context and returns the
// fresh snapshot.
func (r *Router) Reset(ctx context.Context, sessionID string) (domain.ContextSnapshot, error) {
	sess := r.sessions.GetOrCreate(sessionID)
	sess.BeginTurn()
	defer sess.EndTurn()

	sess.Clear(r.now())
	if r.store != nil {
		if err := r.store.DeleteMessages(ctx, sessionID); err != nil {
			return domain.ContextSnapshot{}, err
		}
		if err := r.store.SaveSession(ctx, sess.Record()); err != nil {
			return domain.ContextSnapshot{}, err
		}
	}
	return sess.Context(), nil
}

// lookup returns the live session for id, restoring its persisted workflow
// context on first sight after a restart. Restore failures fall back to a
// fresh session rather than failing the turn.
func (r *Router) lookup(ctx context.Context, sessionID string) *session.Session {
	if _, live := r.sessions.Get(sessionID); !live && r.store != nil {
		rec, err := r.store.GetSession(ctx, sessionID)
		if err != nil {
			r.logger.Warn("loading persisted session failed", "session", sessionID, "error", err)
		} else if rec != nil {
			return r.sessions.Restore(*rec)
		}
	}
	return r.sessions.GetOrCreate(sessionID)
}

func (r *Router) persist(ctx context.Context, sess *session.Session, msgs ...domain.Message) {
	if r.transcript != nil {
		r.transcript.Record(sess.ID, msgs...)
	}
	if r.store == nil {
		return
	}
	if err := r.store.SaveSession(ctx, sess.Record()); err != nil {
		r.logger.Warn("saving session failed", "session", sess.ID, "error", err)
	}
	if err := r.store.AppendMessages(ctx, sess.ID, msgs); err != nil {
		r.logger.Warn("appending messages failed", "session", sess.ID, "error", err)
	}
}
