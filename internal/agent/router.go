package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	otelx "github.com/loopkit/linearbridge/internal/adapter/otel"
	"github.com/loopkit/linearbridge/internal/domain/session"
	"github.com/loopkit/linearbridge/internal/port/backend"
	"github.com/loopkit/linearbridge/internal/port/notifier"
	"github.com/loopkit/linearbridge/internal/port/sink"
	"github.com/loopkit/linearbridge/internal/port/tokenstore"
)

// RouterConfig is the static per-deployment agent selection, resolved once
// at startup and passed in by reference. Routing never consults ambient
// process state.
type RouterConfig struct {
	Variant     backend.Variant
	Persona     string
	MaxTurns    int
	CallTimeout time.Duration
}

// SinkFactory builds a session-scoped activity sink from a workspace
// bearer credential.
type SinkFactory func(credential string) sink.Sink

// Router maps an inbound agent-session event to a loop invocation with the
// correct seed messages. It is purely side-effecting: outcomes surface as
// posted activities, logs and metrics, never as return values.
type Router struct {
	cfg     RouterConfig
	tokens  tokenstore.Store
	sinkFor SinkFactory
	llm     backend.Backend

	// Optional collaborators; nil disables the concern.
	Notifier notifier.Notifier
	Metrics  *otelx.Metrics
	Log      *slog.Logger
}

// NewRouter creates a Router over the given collaborators.
func NewRouter(cfg RouterConfig, tokens tokenstore.Store, sinkFor SinkFactory, llm backend.Backend) *Router {
	return &Router{cfg: cfg, tokens: tokens, sinkFor: sinkFor, llm: llm}
}

// Route processes one inbound event to completion. Callers acknowledge the
// webhook delivery independently; Route is expected to run on a detached
// task and may take as long as a full session turn.
func (r *Router) Route(ctx context.Context, evt session.Event) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session_id", evt.AgentSession.ID, "action", evt.Action)

	seeds, ok := BuildSeeds(evt)
	if !ok {
		log.Info("event ignored")
		return
	}

	stepper, persona, err := r.stepper()
	if err != nil {
		log.Error("backend selection failed", "error", err)
		return
	}

	// Auth failures abort before any backend or sink call: there is no
	// session-visible surface to post into without a credential.
	cred, err := r.tokens.Credential(ctx, evt.OrganizationID)
	if err != nil {
		log.Error("credential lookup failed", "workspace_id", evt.OrganizationID, "error", err)
		return
	}

	ctx, span := otelx.StartSessionSpan(ctx, evt.AgentSession.ID, evt.Action)
	defer span.End()

	r.Metrics.SessionStarted(ctx)

	loop := &Loop{
		Sink:        r.sinkFor(cred),
		Step:        stepper,
		Persona:     persona,
		MaxTurns:    r.cfg.MaxTurns,
		CallTimeout: r.cfg.CallTimeout,
		Metrics:     r.Metrics,
		Log:         log,
	}
	outcome := loop.Run(ctx, evt.AgentSession.ID, seeds)

	r.notify(ctx, log, evt, outcome)
}

// stepper resolves the loop driver and system prompt for the configured
// backend variant.
func (r *Router) stepper() (Stepper, string, error) {
	persona := r.cfg.Persona
	if persona == "" {
		persona = DefaultPersona
	}

	switch r.cfg.Variant {
	case backend.VariantKeyword:
		c, ok := r.llm.(backend.Completer)
		if !ok {
			return nil, "", fmt.Errorf("backend %q does not support chat completions", r.llm.Name())
		}
		return NewKeywordStepper(c), persona + keywordProtocol, nil
	case backend.VariantTools:
		t, ok := r.llm.(backend.ToolCompleter)
		if !ok {
			return nil, "", fmt.Errorf("backend %q does not support tool calling", r.llm.Name())
		}
		return NewToolStepper(t), persona, nil
	default:
		return nil, "", fmt.Errorf("unknown backend variant %q", r.cfg.Variant)
	}
}

// BuildSeeds builds the seed messages for an event. The second return is
// false when the event is a no-op (unknown action, or a follow-up without a
// prompt body).
func BuildSeeds(evt session.Event) ([]session.Message, bool) {
	switch evt.Action {
	case session.ActionCreated:
		var msgs []session.Message
		if evt.PromptContext != "" {
			msgs = append(msgs, session.System(evt.PromptContext))
		}
		return append(msgs, session.User(createdSeedBody(evt.AgentSession))), true
	case session.ActionPrompted:
		if evt.AgentActivity == nil || evt.AgentActivity.Body == "" {
			return nil, false
		}
		return []session.Message{session.User(evt.AgentActivity.Body)}, true
	default:
		return nil, false
	}
}

// createdSeedBody concatenates the labeled issue title, description and
// thread comment, omitting absent sections. All absent yields a fixed
// placeholder sentence, never an empty seed.
func createdSeedBody(s session.AgentSession) string {
	var sections []string
	if s.Issue != nil {
		if s.Issue.Title != "" {
			sections = append(sections, labelIssue+s.Issue.Title)
		}
		if s.Issue.Description != "" {
			sections = append(sections, labelDescription+s.Issue.Description)
		}
	}
	if s.Comment != nil && s.Comment.Body != "" {
		sections = append(sections, labelComment+s.Comment.Body)
	}
	if len(sections) == 0 {
		return emptySeedPlaceholder
	}
	return strings.Join(sections, "\n\n")
}

func (r *Router) notify(ctx context.Context, log *slog.Logger, evt session.Event, outcome Outcome) {
	if r.Notifier == nil {
		return
	}

	n := notifier.Notification{
		Title:   "Agent session " + string(outcome.State),
		Message: fmt.Sprintf("Session %s finished in state %s after %d turn(s).", evt.AgentSession.ID, outcome.State, outcome.Turns),
		Level:   "info",
		Source:  "session." + string(outcome.State),
	}
	if outcome.State == StateErrored || outcome.State == StateExhausted {
		n.Level = "error"
	}

	if err := r.Notifier.Send(ctx, n); err != nil {
		log.Warn("notification failed", "notifier", r.Notifier.Name(), "error", err)
	}
}
