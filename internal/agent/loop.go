package agent

import (
	"context"
	"log/slog"
	"time"

	otelx "github.com/loopkit/linearbridge/internal/adapter/otel"
	"github.com/loopkit/linearbridge/internal/domain/session"
	"github.com/loopkit/linearbridge/internal/port/sink"
)

// State is a terminal state of one session turn.
type State string

const (
	StateResponded State = "responded"
	StateElicited  State = "elicited"
	StateErrored   State = "errored"
	StateExhausted State = "exhausted"
)

// Outcome reports how a session turn ended. The loop itself is
// side-effecting; the outcome exists for logging, metrics and notification.
type Outcome struct {
	State State
	Turns int
}

// DefaultMaxTurns bounds backend calls per session turn when the
// deployment does not configure its own cap.
const DefaultMaxTurns = 25

// Loop is the per-session turn state machine: acknowledge, reconstruct
// history, iterate backend calls, terminate. One Loop value is safe for
// concurrent use; all turn state lives in Run's locals.
type Loop struct {
	Sink        sink.Sink
	Step        Stepper
	Persona     string
	MaxTurns    int
	CallTimeout time.Duration
	Metrics     *otelx.Metrics
	Log         *slog.Logger
}

// Run processes one session event to completion. The acknowledgment thought
// is posted before any backend call: Linear enforces a deadline of a few
// seconds for the first activity after an event, so nothing may precede it.
// Backend failures are not retried; a single failure ends the turn and the
// user re-prompts to recover.
func (l *Loop) Run(ctx context.Context, sessionID string, seeds []session.Message) Outcome {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session_id", sessionID)

	maxTurns := l.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	if err := l.Sink.PostActivity(ctx, sessionID, session.Thought(ackBody)); err != nil {
		log.Error("acknowledgment post failed, aborting run", "error", err)
		return Outcome{State: StateErrored}
	}

	msgs := make([]session.Message, 0, 8+len(seeds))
	msgs = append(msgs, session.System(l.Persona))
	msgs = append(msgs, ReconstructHistory(ctx, l.Sink, sessionID)...)
	msgs = append(msgs, seeds...)

	for turn := 1; turn <= maxTurns; turn++ {
		items, err := l.step(ctx, msgs)
		if err != nil {
			log.Warn("backend call failed", "turn", turn, "error", err)
			l.post(ctx, log, sessionID, session.ErrorActivity(err.Error()))
			l.Metrics.SessionFailed(ctx)
			return Outcome{State: StateErrored, Turns: turn}
		}
		l.Metrics.TurnCompleted(ctx)

		for _, item := range items {
			if !l.post(ctx, log, sessionID, item.Activity) {
				return Outcome{State: StateErrored, Turns: turn}
			}
			msgs = append(msgs, item.Echo...)

			if item.Activity.Terminal() {
				state := terminalState(item.Activity.Kind)
				log.Info("session turn finished", "state", state, "turns", turn)
				l.Metrics.SessionCompleted(ctx, string(state))
				return Outcome{State: state, Turns: turn}
			}
		}
	}

	log.Warn("iteration cap reached", "max_turns", maxTurns)
	l.post(ctx, log, sessionID, session.ErrorActivity(exhaustedBody))
	l.Metrics.SessionCompleted(ctx, string(StateExhausted))
	return Outcome{State: StateExhausted, Turns: maxTurns}
}

func (l *Loop) step(ctx context.Context, msgs []session.Message) ([]StepItem, error) {
	if l.CallTimeout > 0 {
		cctx, cancel := context.WithTimeout(ctx, l.CallTimeout)
		defer cancel()
		return l.Step.Step(cctx, msgs)
	}
	return l.Step.Step(ctx, msgs)
}

// post writes one activity to the sink. A failed post is loop-fatal: the
// sink is the only channel to the user, so there is nothing useful left to
// do besides log and stop.
func (l *Loop) post(ctx context.Context, log *slog.Logger, sessionID string, act session.Activity) bool {
	if err := l.Sink.PostActivity(ctx, sessionID, act); err != nil {
		log.Error("activity post failed", "kind", act.Kind, "error", err)
		return false
	}
	l.Metrics.ActivityPosted(ctx, string(act.Kind))
	return true
}

func terminalState(kind session.ActivityKind) State {
	switch kind {
	case session.KindResponse:
		return StateResponded
	case session.KindElicitation:
		return StateElicited
	case session.KindError:
		return StateErrored
	default:
		// Terminal() already rejected the other kinds.
		panic("agent: non-terminal kind " + string(kind))
	}
}
