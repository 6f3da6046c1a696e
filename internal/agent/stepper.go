package agent

import (
	"context"
	"fmt"

	"github.com/loopkit/linearbridge/internal/domain/session"
	"github.com/loopkit/linearbridge/internal/port/backend"
)

// StepItem is one classified activity produced by a backend turn, paired
// with the messages that represent it in the running history once posted.
type StepItem struct {
	Activity session.Activity
	Echo     []session.Message
}

// Stepper runs one backend turn over the accumulated messages. The two
// implementations wrap the two backend variants behind one loop skeleton.
type Stepper interface {
	Step(ctx context.Context, msgs []session.Message) ([]StepItem, error)
}

// keywordStepper drives a chat-completions backend through the keyword
// prefix protocol: one text blob in, one classified activity out.
type keywordStepper struct {
	c backend.Completer
}

// NewKeywordStepper wraps a chat-completions backend.
func NewKeywordStepper(c backend.Completer) Stepper {
	return &keywordStepper{c: c}
}

func (s *keywordStepper) Step(ctx context.Context, msgs []session.Message) ([]StepItem, error) {
	text, err := s.c.Complete(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.c.Name(), err)
	}

	act := Classify(text)
	echo := []session.Message{session.Assistant(text)}
	if act.Kind == session.KindAction {
		// Chat-only backends have no "action completed" signal; nudge
		// them onward with a synthetic user message.
		echo = append(echo, session.User(actionContinue))
	}
	return []StepItem{{Activity: act, Echo: echo}}, nil
}

// toolStepper drives a native tool-calling backend: each tool invocation
// maps losslessly to one activity, no text parsing involved.
type toolStepper struct {
	t backend.ToolCompleter
}

// NewToolStepper wraps a tool-calling backend.
func NewToolStepper(t backend.ToolCompleter) Stepper {
	return &toolStepper{t: t}
}

func (s *toolStepper) Step(ctx context.Context, msgs []session.Message) ([]StepItem, error) {
	turn, err := s.t.CompleteWithTools(ctx, msgs, sessionTools())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.t.Name(), err)
	}

	if len(turn.Calls) == 0 {
		// A turn ending in plain narrative text is a final answer,
		// never silently discarded.
		text := joinBlocks(turn.TextBlocks)
		return []StepItem{{
			Activity: session.Response(text),
			Echo:     []session.Message{session.Assistant(text)},
		}}, nil
	}

	items := make([]StepItem, 0, len(turn.Calls))
	for _, call := range turn.Calls {
		act := mapToolCall(call)
		items = append(items, StepItem{
			Activity: act,
			Echo: []session.Message{
				session.Assistant(fmt.Sprintf("[%s] %s", call.Name, activitySummary(act))),
				{Role: session.RoleTool, Content: "recorded"},
			},
		})
	}
	return items, nil
}

func joinBlocks(blocks []string) string {
	out := ""
	for _, b := range blocks {
		if b == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += b
	}
	return out
}

func activitySummary(a session.Activity) string {
	if a.Kind == session.KindAction {
		if a.Parameter != nil {
			return fmt.Sprintf("%s(%s)", a.ActionName, *a.Parameter)
		}
		return a.ActionName + "()"
	}
	return a.Body
}
