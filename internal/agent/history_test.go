package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/loopkit/linearbridge/internal/domain/session"
	"github.com/loopkit/linearbridge/internal/port/sink"
)

func TestReconstructHistoryOrdersAndFilters(t *testing.T) {
	s := &fakeSink{pages: []sink.Page{{
		// newest-first
		Items: []session.Activity{
			{Kind: session.KindResponse, Body: "second answer"},
			{Kind: session.KindThought, Body: "working on it"},
			{Kind: session.KindPrompt, Body: "second question"},
			{Kind: session.KindResponse, Body: "first answer"},
			{Kind: session.KindAction, ActionName: "search"},
			{Kind: session.KindPrompt, Body: "first question"},
		},
	}}}

	msgs := ReconstructHistory(context.Background(), s, "sess-1")

	want := []session.Message{
		session.User("first question"),
		session.Assistant("first answer"),
		session.User("second question"),
		session.Assistant("second answer"),
	}
	if len(msgs) != len(want) {
		t.Fatalf("message count = %d, want %d: %+v", len(msgs), len(want), msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("msg[%d] = %+v, want %+v", i, msgs[i], want[i])
		}
	}
}

func TestReconstructHistoryWalksAllPages(t *testing.T) {
	s := &fakeSink{pages: []sink.Page{
		{
			Items:      []session.Activity{{Kind: session.KindResponse, Body: "answer"}},
			NextCursor: "p1",
		},
		{
			Items: []session.Activity{{Kind: session.KindPrompt, Body: "question"}},
		},
	}}

	msgs := ReconstructHistory(context.Background(), s, "sess-1")
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2", len(msgs))
	}
	if msgs[0].Role != session.RoleUser || msgs[0].Content != "question" {
		t.Fatalf("msg[0] = %+v, want the older user prompt first", msgs[0])
	}
	if s.listCalls != 2 {
		t.Fatalf("list calls = %d, want 2", s.listCalls)
	}
}

func TestReconstructHistoryFetchFailureYieldsEmpty(t *testing.T) {
	s := &fakeSink{listErr: errors.New("listing broken")}

	msgs := ReconstructHistory(context.Background(), s, "sess-1")
	if msgs != nil {
		t.Fatalf("expected nil history on fetch failure, got %+v", msgs)
	}
}

func TestReconstructHistoryEmptySession(t *testing.T) {
	s := &fakeSink{}

	msgs := ReconstructHistory(context.Background(), s, "sess-1")
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %+v", msgs)
	}
}
