package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/loopkit/linearbridge/internal/domain/session"
	"github.com/loopkit/linearbridge/internal/port/backend"
)

func TestKeywordStepperEchoesAssistantText(t *testing.T) {
	c := &scriptedCompleter{outputs: []string{"THINKING: checking"}}
	items, err := NewKeywordStepper(c).Step(context.Background(), nil)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Activity.Kind != session.KindThought {
		t.Fatalf("kind = %q, want thought", items[0].Activity.Kind)
	}
	if len(items[0].Echo) != 1 || items[0].Echo[0].Role != session.RoleAssistant {
		t.Fatalf("echo = %+v, want single assistant message", items[0].Echo)
	}
	if items[0].Echo[0].Content != "THINKING: checking" {
		t.Fatalf("echo content = %q, want raw text", items[0].Echo[0].Content)
	}
}

func TestKeywordStepperActionAppendsContinueNudge(t *testing.T) {
	c := &scriptedCompleter{outputs: []string{"ACTION: fetch(logs)"}}
	items, err := NewKeywordStepper(c).Step(context.Background(), nil)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	echo := items[0].Echo
	if len(echo) != 2 {
		t.Fatalf("echo length = %d, want 2 for actions", len(echo))
	}
	if echo[1].Role != session.RoleUser || echo[1].Content != actionContinue {
		t.Fatalf("echo[1] = %+v, want continue nudge", echo[1])
	}
}

func TestKeywordStepperWrapsBackendError(t *testing.T) {
	c := &scriptedCompleter{outputs: []string{"x"}, errAt: 1}
	_, err := NewKeywordStepper(c).Step(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "scripted") {
		t.Fatalf("error %q does not name the backend", err)
	}
}

// scriptedToolCompleter serves canned tool turns.
type scriptedToolCompleter struct {
	turn *backend.ToolTurn
	err  error
	seen []backend.Tool
}

func (s *scriptedToolCompleter) Name() string { return "scripted-tools" }

func (s *scriptedToolCompleter) CompleteWithTools(_ context.Context, _ []session.Message, tools []backend.Tool) (*backend.ToolTurn, error) {
	s.seen = tools
	return s.turn, s.err
}

func TestToolStepperZeroCallsIsFinalResponse(t *testing.T) {
	tc := &scriptedToolCompleter{turn: &backend.ToolTurn{
		TextBlocks: []string{"All set.", "The fix shipped."},
	}}
	items, err := NewToolStepper(tc).Step(context.Background(), nil)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	act := items[0].Activity
	if act.Kind != session.KindResponse {
		t.Fatalf("kind = %q, want response", act.Kind)
	}
	if act.Body != "All set.\n\nThe fix shipped." {
		t.Fatalf("body = %q, want joined blocks", act.Body)
	}
}

func TestToolStepperMapsEachCall(t *testing.T) {
	tc := &scriptedToolCompleter{turn: &backend.ToolTurn{
		Calls: []backend.ToolCall{
			{Name: "emit-thought", Args: map[string]any{"body": "looking at the diff"}},
			{Name: "emit-action", Args: map[string]any{"action": "search", "parameter": "panics"}},
			{Name: "emit-ask", Args: map[string]any{"body": "which release?"}},
		},
	}}
	items, err := NewToolStepper(tc).Step(context.Background(), nil)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}

	if items[0].Activity.Kind != session.KindThought || items[0].Activity.Body != "looking at the diff" {
		t.Errorf("item[0] = %+v", items[0].Activity)
	}
	if items[1].Activity.Kind != session.KindAction || items[1].Activity.ActionName != "search" {
		t.Errorf("item[1] = %+v", items[1].Activity)
	}
	if p := items[1].Activity.Parameter; p == nil || *p != "panics" {
		t.Errorf("item[1] parameter = %v, want panics", p)
	}
	if items[2].Activity.Kind != session.KindElicitation {
		t.Errorf("item[2] = %+v", items[2].Activity)
	}

	for i, item := range items {
		if len(item.Echo) != 2 || item.Echo[1].Role != session.RoleTool {
			t.Errorf("item[%d] echo = %+v, want assistant + tool result pair", i, item.Echo)
		}
	}
}

func TestToolStepperUnknownToolBecomesThought(t *testing.T) {
	tc := &scriptedToolCompleter{turn: &backend.ToolTurn{
		Calls: []backend.ToolCall{{Name: "emit-telemetry", Args: map[string]any{}}},
	}}
	items, err := NewToolStepper(tc).Step(context.Background(), nil)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	act := items[0].Activity
	if act.Kind != session.KindThought {
		t.Fatalf("kind = %q, want thought for unknown tool", act.Kind)
	}
	if !strings.Contains(act.Body, "emit-telemetry") {
		t.Fatalf("body %q does not name the unknown operation", act.Body)
	}
}

func TestToolStepperExposesAllFourTools(t *testing.T) {
	tc := &scriptedToolCompleter{turn: &backend.ToolTurn{TextBlocks: []string{"ok"}}}
	if _, err := NewToolStepper(tc).Step(context.Background(), nil); err != nil {
		t.Fatalf("Step: %v", err)
	}

	names := map[string]bool{}
	for _, tool := range tc.seen {
		names[tool.Name] = true
	}
	for _, want := range []string{"emit-thought", "emit-action", "emit-response", "emit-ask"} {
		if !names[want] {
			t.Errorf("tool %q not exposed", want)
		}
	}
}

func TestToolStepperErrorPropagates(t *testing.T) {
	tc := &scriptedToolCompleter{err: errors.New("rate limited")}
	if _, err := NewToolStepper(tc).Step(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
