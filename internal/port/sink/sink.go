// Package sink defines the activity sink port: the tracker API that stores
// and serves a session's ordered activity log.
package sink

import (
	"context"

	"github.com/loopkit/linearbridge/internal/domain/session"
)

// Page is one page of a session's activity listing. The sink's native order
// is newest-first; callers needing conversational history must restore
// chronological order themselves.
type Page struct {
	Items      []session.Activity
	NextCursor string
}

// Sink is the port interface for the external activity store.
type Sink interface {
	// PostActivity appends one activity to the session.
	PostActivity(ctx context.Context, sessionID string, act session.Activity) error

	// ListActivities returns one page of the session's activities,
	// newest-first. An empty cursor requests the first page; an empty
	// NextCursor on the returned page means no further pages exist.
	ListActivities(ctx context.Context, sessionID, cursor string) (*Page, error)
}
