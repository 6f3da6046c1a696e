// Package backend defines the LLM backend port and the factory registry
// backends register themselves with.
package backend

import (
	"context"

	"github.com/loopkit/linearbridge/internal/domain/session"
)

// Variant selects the output protocol a backend speaks.
type Variant string

const (
	// VariantKeyword marks chat-style backends whose output is a single
	// text blob classified by keyword prefix.
	VariantKeyword Variant = "keyword"
	// VariantTools marks backends with native tool calling.
	VariantTools Variant = "tools"
)

// Backend is the common surface of all LLM backends. Concrete backends
// additionally implement Completer or ToolCompleter depending on variant.
type Backend interface {
	// Name returns the unique identifier for this backend (e.g. "openai").
	Name() string
}

// Completer is a chat-completions backend: one text blob per turn.
type Completer interface {
	Backend

	// Complete runs one completion over the accumulated messages.
	Complete(ctx context.Context, msgs []session.Message) (string, error)
}

// ToolCompleter is a backend with native tool calling.
type ToolCompleter interface {
	Backend

	// CompleteWithTools runs one completion with the given tools exposed.
	CompleteWithTools(ctx context.Context, msgs []session.Message, tools []Tool) (*ToolTurn, error)
}

// Tool describes one callable tool exposed to a tool-calling backend.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is one structured tool invocation emitted by the backend.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolTurn is the full output of one tool-variant backend turn: narrative
// text blocks plus zero or more tool invocations, in emission order.
type ToolTurn struct {
	TextBlocks []string
	Calls      []ToolCall
}
