// Package anthropic implements the tool-variant backend against the
// Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/loopkit/linearbridge/internal/domain/session"
	"github.com/loopkit/linearbridge/internal/port/backend"
	"github.com/loopkit/linearbridge/internal/resilience"
)

const providerName = "anthropic"

// DefaultBaseURL is the production Anthropic API root.
const DefaultBaseURL = "https://api.anthropic.com"

const (
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

func init() {
	backend.Register(providerName, func(config map[string]string) (backend.Backend, error) {
		if config["api_key"] == "" {
			return nil, fmt.Errorf("anthropic: api_key is required")
		}
		if config["model"] == "" {
			return nil, fmt.Errorf("anthropic: model is required")
		}
		return New(config["base_url"], config["api_key"], config["model"]), nil
	})
}

// Client is a native tool-calling backend.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// New creates a Messages API client. An empty baseURL uses the production
// endpoint.
func New(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: defaultMaxTokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return providerName }

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []wireMessage `json:"messages"`
	Tools     []wireTool    `json:"tools,omitempty"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CompleteWithTools runs one Messages API turn with the given tools exposed.
func (c *Client) CompleteWithTools(ctx context.Context, msgs []session.Message, tools []backend.Tool) (*backend.ToolTurn, error) {
	req := messagesRequest{Model: c.model, MaxTokens: c.maxTokens}

	for _, t := range tools {
		req.Tools = append(req.Tools, wireTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	// The Messages API takes the system prompt out of band; system
	// messages are hoisted and the rest alternate user/assistant.
	for _, m := range msgs {
		switch m.Role {
		case session.RoleSystem:
			if req.System != "" {
				req.System += "\n\n"
			}
			req.System += m.Content
		case session.RoleAssistant:
			req.Messages = append(req.Messages, wireMessage{Role: "assistant", Content: m.Content})
		case session.RoleUser, session.RoleTool:
			req.Messages = append(req.Messages, wireMessage{Role: "user", Content: m.Content})
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var parsed messagesResponse
	call := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", c.apiKey)
		httpReq.Header.Set("anthropic-version", apiVersion)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("messages API error %d: %s", resp.StatusCode, string(data))
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		if parsed.Error != nil {
			return fmt.Errorf("messages API: %s", parsed.Error.Message)
		}
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return nil, err
	}

	turn := &backend.ToolTurn{}
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			turn.TextBlocks = append(turn.TextBlocks, block.Text)
		case "tool_use":
			args := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					return nil, fmt.Errorf("unmarshal tool input for %q: %w", block.Name, err)
				}
			}
			turn.Calls = append(turn.Calls, backend.ToolCall{Name: block.Name, Args: args})
		}
	}
	return turn, nil
}
