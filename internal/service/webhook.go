// Package service holds the application services between the HTTP surface
// and the agent core.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/loopkit/linearbridge/internal/dispatch"
	"github.com/loopkit/linearbridge/internal/domain/session"
)

// eventTypeAgentSession is the only webhook payload type the bridge acts on.
const eventTypeAgentSession = "AgentSessionEvent"

// envelope is the outer webhook payload. Fields of the inner event are
// flattened alongside the type discriminator.
type envelope struct {
	Type string `json:"type"`
	session.Event
}

// RouteFunc carries one session event into the agent core.
type RouteFunc func(ctx context.Context, evt session.Event)

// WebhookService accepts verified webhook payloads and hands session work
// to the background runner. The HTTP handler acknowledges before any
// session processing happens.
type WebhookService struct {
	route  RouteFunc
	runner *dispatch.Runner
	log    *slog.Logger
}

// NewWebhookService wires the webhook intake to the session router.
func NewWebhookService(route RouteFunc, runner *dispatch.Runner, log *slog.Logger) *WebhookService {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookService{route: route, runner: runner, log: log}
}

// HandleEvent parses one webhook delivery and schedules session processing.
// Events the bridge does not act on are dropped without error so the
// transport still acknowledges them.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("parse webhook payload: %w", err)
	}

	if !s.shouldProcess(env) {
		s.log.Debug("ignoring webhook event",
			"type", env.Type,
			"action", env.Action)
		return nil
	}

	evt := env.Event
	scheduled := s.runner.Go("session."+evt.Action, func(taskCtx context.Context) {
		s.route(taskCtx, evt)
	})
	if !scheduled {
		return fmt.Errorf("dispatch runner is shutting down")
	}

	s.log.Info("session event dispatched",
		"action", evt.Action,
		"session_id", evt.AgentSession.ID,
		"organization_id", evt.OrganizationID)
	return nil
}

// shouldProcess filters to agent session lifecycle events the loop handles.
func (s *WebhookService) shouldProcess(env envelope) bool {
	if env.Type != eventTypeAgentSession {
		return false
	}
	switch env.Action {
	case session.ActionCreated, session.ActionPrompted:
		return env.AgentSession.ID != ""
	default:
		return false
	}
}
