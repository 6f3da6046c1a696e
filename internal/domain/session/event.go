package session

// Webhook actions emitted by Linear for agent sessions.
const (
	ActionCreated  = "created"
	ActionPrompted = "prompted"
)

// Event is an inbound agent-session webhook event, already
// signature-verified by the transport layer.
type Event struct {
	Action         string        `json:"action"`
	OrganizationID string        `json:"organizationId"`
	AgentSession   AgentSession  `json:"agentSession"`
	AgentActivity  *PromptSource `json:"agentActivity,omitempty"`

	// PromptContext is out-of-band context supplied by the deployment,
	// injected as a leading system message on new sessions.
	PromptContext string `json:"promptContext,omitempty"`
}

// AgentSession identifies the session the event belongs to, with the issue
// and comment snapshots Linear attaches to "created" events.
type AgentSession struct {
	ID      string        `json:"id"`
	Issue   *Issue        `json:"issue,omitempty"`
	Comment *PromptSource `json:"comment,omitempty"`
}

// Issue is the title/description snapshot of the originating issue.
type Issue struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PromptSource is a user-authored text body carried on an event, either the
// thread comment on a new session or the follow-up prompt on "prompted".
type PromptSource struct {
	Body string `json:"body"`
}
