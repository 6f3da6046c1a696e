// Package session holds the domain types for Linear agent sessions:
// activities, backend messages, and inbound webhook events.
package session

import "fmt"

// ActivityKind identifies one of the typed activities attached to a session.
// Prompt is user-authored; all other kinds are agent-authored.
type ActivityKind string

const (
	KindThought     ActivityKind = "thought"
	KindAction      ActivityKind = "action"
	KindResponse    ActivityKind = "response"
	KindElicitation ActivityKind = "elicitation"
	KindError       ActivityKind = "error"
	KindPrompt      ActivityKind = "prompt"
)

// Activity is one unit of agent output or user input attached to a session.
// Body is required for Thought, Response, Elicitation and Error. Action
// carries ActionName plus an optional Parameter and Result instead.
type Activity struct {
	Kind       ActivityKind `json:"kind"`
	Body       string       `json:"body,omitempty"`
	ActionName string       `json:"action,omitempty"`
	Parameter  *string      `json:"parameter,omitempty"`
	Result     string       `json:"result,omitempty"`
}

// Terminal reports whether posting this activity ends the session turn.
// The switch is exhaustive over ActivityKind; a new kind must be handled
// here before it can be classified anywhere.
func (a Activity) Terminal() bool {
	switch a.Kind {
	case KindResponse, KindElicitation, KindError:
		return true
	case KindThought, KindAction, KindPrompt:
		return false
	default:
		panic(fmt.Sprintf("session: unhandled activity kind %q", a.Kind))
	}
}

// AgentAuthored reports whether the activity kind is emitted by the agent.
func (a Activity) AgentAuthored() bool {
	switch a.Kind {
	case KindThought, KindAction, KindResponse, KindElicitation, KindError:
		return true
	case KindPrompt:
		return false
	default:
		panic(fmt.Sprintf("session: unhandled activity kind %q", a.Kind))
	}
}

// Thought returns a Thought activity with the given body.
func Thought(body string) Activity { return Activity{Kind: KindThought, Body: body} }

// Response returns a Response activity with the given body.
func Response(body string) Activity { return Activity{Kind: KindResponse, Body: body} }

// Elicitation returns an Elicitation (question to the user) activity.
func Elicitation(body string) Activity { return Activity{Kind: KindElicitation, Body: body} }

// ErrorActivity returns an Error activity with the given body.
func ErrorActivity(body string) Activity { return Activity{Kind: KindError, Body: body} }

// Action returns an Action activity. Parameter may be nil when the
// invocation carries no argument.
func Action(name string, parameter *string) Activity {
	return Activity{Kind: KindAction, ActionName: name, Parameter: parameter}
}
