// Package openai implements the keyword-variant backend against an
// OpenAI-compatible chat-completions endpoint.
package openai

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

const providerName = "openai"

// DefaultBaseURL is the production OpenAI API root. Any OpenAI-compatible
// gateway (OpenRouter, vLLM, LiteLLM) works by overriding it.
const DefaultBaseURL = "https://api.openai.com/v1"

func init() {
	backend.Register(providerName, func(config map[string]string) (backend.Backend, error) {
		if config["api_key"] == "" {
			return nil, fmt.Errorf("openai: api_key is required")
		}
		if config["model"] == "" {
			return nil, fmt.Errorf("openai: model is required")
		}
		return New(config["base_url"], config["api_key"], config["model"]), nil
	})
}

// Client is a chat-completions backend: one text blob per turn, classified
// downstream by keyword prefix.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// New creates a chat-completions client. An empty baseURL uses the
// production OpenAI endpoint.
func New(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
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

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete runs one chat completion over the accumulated messages.
func (c *Client) Complete(ctx context.Context, msgs []session.Message) (string, error) {
	req := chatRequest{Model: c.model, Messages: make([]chatMessage, 0, len(msgs))}
	for _, m := range msgs {
		req.Messages = append(req.Messages, chatMessage{Role: wireRole(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var text string
	call := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

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
			return fmt.Errorf("chat completions error %d: %s", resp.StatusCode, string(data))
		}

		var parsed chatResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		if parsed.Error != nil {
			return fmt.Errorf("chat completions: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return fmt.Errorf("chat completions returned no choices")
		}
		text = parsed.Choices[0].Message.Content
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// wireRole maps domain roles to chat-completions roles. Tool-result framing
// never occurs on this variant; it degrades to user if it ever does.
func wireRole(r session.Role) string {
	switch r {
	case session.RoleSystem:
		return "system"
	case session.RoleAssistant:
		return "assistant"
	case session.RoleUser, session.RoleTool:
		return "user"
	default:
		return "user"
	}
}
