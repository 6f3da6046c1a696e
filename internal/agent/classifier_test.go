package agent

import (
	"testing"

	"github.com/loopkit/linearbridge/internal/domain/session"
)

func TestClassifyPrefixes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind session.ActivityKind
		body string
	}{
		{"thinking", "THINKING: checking the stack trace", session.KindThought, "checking the stack trace"},
		{"response", "RESPONSE: the bug is in the parser", session.KindResponse, "the bug is in the parser"},
		{"question", "QUESTION: which environment is affected?", session.KindElicitation, "which environment is affected?"},
		{"error", "ERROR: repository is unreachable", session.KindError, "repository is unreachable"},
		{"lowercase prefix", "thinking: still looking", session.KindThought, "still looking"},
		{"mixed case prefix", "Response: done", session.KindResponse, "done"},
		{"leading whitespace", "  THINKING: indented", session.KindThought, "indented"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := Classify(tt.raw)
			if act.Kind != tt.kind {
				t.Fatalf("kind = %q, want %q", act.Kind, tt.kind)
			}
			if act.Body != tt.body {
				t.Fatalf("body = %q, want %q", act.Body, tt.body)
			}
		})
	}
}

func TestClassifyNoPrefixIsResponse(t *testing.T) {
	act := Classify("  The fix is to bump the dependency.  ")
	if act.Kind != session.KindResponse {
		t.Fatalf("kind = %q, want response", act.Kind)
	}
	if act.Body != "The fix is to bump the dependency." {
		t.Fatalf("body = %q, want full trimmed text", act.Body)
	}
}

func TestClassifyPrefixMustLeadTheText(t *testing.T) {
	act := Classify("I was THINKING: about it")
	if act.Kind != session.KindResponse {
		t.Fatalf("kind = %q, want response for mid-text prefix", act.Kind)
	}
}

func TestClassifyActionWithParameter(t *testing.T) {
	act := Classify("ACTION: search(crash logs since friday)")
	if act.Kind != session.KindAction {
		t.Fatalf("kind = %q, want action", act.Kind)
	}
	if act.ActionName != "search" {
		t.Fatalf("action = %q, want search", act.ActionName)
	}
	if act.Parameter == nil || *act.Parameter != "crash logs since friday" {
		t.Fatalf("parameter = %v, want crash logs since friday", act.Parameter)
	}
}

func TestClassifyActionWithoutParameter(t *testing.T) {
	act := Classify("ACTION: refresh()")
	if act.Kind != session.KindAction {
		t.Fatalf("kind = %q, want action", act.Kind)
	}
	if act.ActionName != "refresh" {
		t.Fatalf("action = %q, want refresh", act.ActionName)
	}
	if act.Parameter != nil {
		t.Fatalf("parameter = %q, want nil for empty parens", *act.Parameter)
	}
}

func TestClassifyActionNestedParens(t *testing.T) {
	act := Classify("ACTION: run(build(all))")
	if act.Kind != session.KindAction {
		t.Fatalf("kind = %q, want action", act.Kind)
	}
	if act.Parameter == nil || *act.Parameter != "build(all)" {
		t.Fatalf("parameter = %v, want build(all)", act.Parameter)
	}
}

func TestClassifyMalformedActionDowngradesToThought(t *testing.T) {
	tests := []string{
		"ACTION: just do the thing",
		"ACTION: 9starts-with-digit(x)",
		"ACTION: missing-close(x",
	}
	for _, raw := range tests {
		act := Classify(raw)
		if act.Kind != session.KindThought {
			t.Errorf("Classify(%q).Kind = %q, want thought", raw, act.Kind)
		}
		if act.Body == "" {
			t.Errorf("Classify(%q) dropped the original text", raw)
		}
	}
}
