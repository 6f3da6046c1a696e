package agent

import (
	"fmt"

	"github.com/loopkit/linearbridge/internal/domain/session"
	"github.com/loopkit/linearbridge/internal/port/backend"
)

// Tool names exposed to tool-calling backends, each mapped 1:1 to an
// activity kind. emit-response and emit-ask are terminal.
const (
	toolEmitThought  = "emit-thought"
	toolEmitAction   = "emit-action"
	toolEmitResponse = "emit-response"
	toolEmitAsk      = "emit-ask"
)

// sessionTools returns the tool set exposed on every tool-variant turn.
func sessionTools() []backend.Tool {
	textSchema := func(desc string) map[string]any {
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				"body": map[string]any{"type": "string", "description": desc},
			},
			"required": []string{"body"},
		}
	}

	return []backend.Tool{
		{
			Name:        toolEmitThought,
			Description: "Record an intermediate reasoning step visible to the user.",
			InputSchema: textSchema("The reasoning step."),
		},
		{
			Name:        toolEmitAction,
			Description: "Record an operation you are performing.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action":    map[string]any{"type": "string", "description": "Operation name."},
					"parameter": map[string]any{"type": "string", "description": "Optional operation argument."},
				},
				"required": []string{"action"},
			},
		},
		{
			Name:        toolEmitResponse,
			Description: "Deliver your final answer and end the session turn.",
			InputSchema: textSchema("The final answer."),
		},
		{
			Name:        toolEmitAsk,
			Description: "Ask the user a question you need answered, ending the session turn.",
			InputSchema: textSchema("The question for the user."),
		},
	}
}

// mapToolCall maps one structured tool invocation to an activity. Unknown
// tool names degrade to a visible Thought noting the unknown operation,
// never a silent drop.
func mapToolCall(call backend.ToolCall) session.Activity {
	switch call.Name {
	case toolEmitThought:
		return session.Thought(stringArg(call.Args, "body"))
	case toolEmitAction:
		name := stringArg(call.Args, "action")
		if name == "" {
			return session.Thought(fmt.Sprintf("emit-action called without an action name: %v", call.Args))
		}
		if param := stringArg(call.Args, "parameter"); param != "" {
			return session.Action(name, &param)
		}
		return session.Action(name, nil)
	case toolEmitResponse:
		return session.Response(stringArg(call.Args, "body"))
	case toolEmitAsk:
		return session.Elicitation(stringArg(call.Args, "body"))
	default:
		return session.Thought(fmt.Sprintf("unknown operation %q requested by the model", call.Name))
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
