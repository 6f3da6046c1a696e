package linearapi

import (
	"context"
	"fmt"

	"github.com/loopkit/linearbridge/internal/domain/session"
	"github.com/loopkit/linearbridge/internal/port/sink"
)

const activityPageSize = 50

const createActivityMutation = `
mutation CreateAgentActivity($input: AgentActivityCreateInput!) {
  agentActivityCreate(input: $input) {
    success
  }
}`

const listActivitiesQuery = `
query SessionActivities($sessionId: String!, $after: String, $first: Int!) {
  agentSession(id: $sessionId) {
    activities(first: $first, after: $after) {
      nodes {
        content {
          type
          body
          action
          parameter
          result
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`

// PostActivity appends one agent activity to the session thread.
func (c *Client) PostActivity(ctx context.Context, sessionID string, act session.Activity) error {
	input := map[string]any{
		"agentSessionId": sessionID,
		"content":        activityContent(act),
	}

	var out struct {
		AgentActivityCreate struct {
			Success bool `json:"success"`
		} `json:"agentActivityCreate"`
	}
	if err := c.do(ctx, createActivityMutation, map[string]any{"input": input}, &out); err != nil {
		return fmt.Errorf("post activity: %w", err)
	}
	if !out.AgentActivityCreate.Success {
		return fmt.Errorf("post activity: mutation reported failure")
	}
	return nil
}

// ListActivities returns one page of the session's activities, newest-first
// in Linear's native ordering.
func (c *Client) ListActivities(ctx context.Context, sessionID, cursor string) (*sink.Page, error) {
	vars := map[string]any{
		"sessionId": sessionID,
		"first":     activityPageSize,
	}
	if cursor != "" {
		vars["after"] = cursor
	}

	var out struct {
		AgentSession struct {
			Activities struct {
				Nodes []struct {
					Content activityContentNode `json:"content"`
				} `json:"nodes"`
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
			} `json:"activities"`
		} `json:"agentSession"`
	}
	if err := c.do(ctx, listActivitiesQuery, vars, &out); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	page := &sink.Page{}
	for _, node := range out.AgentSession.Activities.Nodes {
		if act, ok := node.Content.toActivity(); ok {
			page.Items = append(page.Items, act)
		}
	}
	if out.AgentSession.Activities.PageInfo.HasNextPage {
		page.NextCursor = out.AgentSession.Activities.PageInfo.EndCursor
	}
	return page, nil
}

// activityContentNode is the wire shape of one activity's content payload.
type activityContentNode struct {
	Type      string  `json:"type"`
	Body      string  `json:"body"`
	Action    string  `json:"action"`
	Parameter *string `json:"parameter"`
	Result    string  `json:"result"`
}

// toActivity maps a wire payload to a domain activity. Content types this
// bridge does not know are dropped here, before they can reach the domain's
// exhaustive switches.
func (n activityContentNode) toActivity() (session.Activity, bool) {
	switch session.ActivityKind(n.Type) {
	case session.KindThought, session.KindResponse, session.KindElicitation, session.KindError, session.KindPrompt:
		return session.Activity{Kind: session.ActivityKind(n.Type), Body: n.Body}, true
	case session.KindAction:
		return session.Activity{
			Kind:       session.KindAction,
			ActionName: n.Action,
			Parameter:  n.Parameter,
			Result:     n.Result,
		}, true
	default:
		return session.Activity{}, false
	}
}

// activityContent builds the wire content payload for an activity. The
// switch is exhaustive over the agent-authored kinds; Prompt is
// user-authored and never posted by the bridge.
func activityContent(act session.Activity) map[string]any {
	switch act.Kind {
	case session.KindThought, session.KindResponse, session.KindElicitation, session.KindError:
		return map[string]any{
			"type": string(act.Kind),
			"body": act.Body,
		}
	case session.KindAction:
		content := map[string]any{
			"type":   string(act.Kind),
			"action": act.ActionName,
		}
		if act.Parameter != nil {
			content["parameter"] = *act.Parameter
		}
		if act.Result != "" {
			content["result"] = act.Result
		}
		return content
	case session.KindPrompt:
		panic("linearapi: prompt activities are user-authored and cannot be posted")
	default:
		panic(fmt.Sprintf("linearapi: unhandled activity kind %q", act.Kind))
	}
}
