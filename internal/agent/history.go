package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loopkit/linearbridge/internal/domain/session"
	"github.com/loopkit/linearbridge/internal/port/sink"
)

// ReconstructHistory rebuilds a session's conversational history from the
// activity sink: all pages concatenated, restored to chronological order,
// filtered to Prompt (user) and Response (assistant) activities. Any fetch
// failure degrades to an empty history so the session falls back to
// stateless single-turn behavior instead of aborting.
func ReconstructHistory(ctx context.Context, s sink.Sink, sessionID string) []session.Message {
	acts, err := fetchAll(ctx, s, sessionID)
	if err != nil {
		slog.Warn("history fetch failed, continuing without history",
			"session_id", sessionID, "error", err)
		return nil
	}

	// The sink serves newest-first; reverse to chronological.
	for i, j := 0, len(acts)-1; i < j; i, j = i+1, j-1 {
		acts[i], acts[j] = acts[j], acts[i]
	}

	var msgs []session.Message
	for _, a := range acts {
		switch a.Kind {
		case session.KindPrompt:
			msgs = append(msgs, session.User(a.Body))
		case session.KindResponse:
			msgs = append(msgs, session.Assistant(a.Body))
		case session.KindThought, session.KindAction, session.KindElicitation, session.KindError:
			// Operational side-channel, not conversational turns.
		default:
			panic(fmt.Sprintf("agent: unhandled activity kind %q", a.Kind))
		}
	}
	return msgs
}

func fetchAll(ctx context.Context, s sink.Sink, sessionID string) ([]session.Activity, error) {
	var all []session.Activity
	cursor := ""
	for {
		page, err := s.ListActivities(ctx, sessionID, cursor)
		if err != nil {
			return nil, fmt.Errorf("list activities: %w", err)
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}
