// Package linearapi provides the Linear GraphQL adapter: the activity sink,
// session activity listing, and the OAuth token endpoints.
package linearapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loopkit/linearbridge/internal/resilience"
)

// DefaultAPIURL is the production Linear GraphQL endpoint.
const DefaultAPIURL = "https://api.linear.app/graphql"

// Client talks to the Linear GraphQL API on behalf of one workspace.
// A Client is scoped to the bearer credential it was created with.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a workspace-scoped Linear client. An empty apiURL uses
// the production endpoint.
func NewClient(apiURL, token string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL: apiURL,
		token:  token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing API calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// graphQLError is one entry of a GraphQL "errors" array.
type graphQLError struct {
	Message string `json:"message"`
}

// do executes one GraphQL request and unmarshals the "data" object into out.
func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("linear API error %d: %s", resp.StatusCode, string(data))
		}

		var envelope struct {
			Data   json.RawMessage `json:"data"`
			Errors []graphQLError  `json:"errors"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		if len(envelope.Errors) > 0 {
			msgs := make([]string, len(envelope.Errors))
			for i, e := range envelope.Errors {
				msgs[i] = e.Message
			}
			return fmt.Errorf("linear API: %s", strings.Join(msgs, "; "))
		}
		if out != nil {
			if err := json.Unmarshal(envelope.Data, out); err != nil {
				return fmt.Errorf("unmarshal data: %w", err)
			}
		}
		return nil
	}

	if c.breaker != nil {
		return c.breaker.Execute(call)
	}
	return call()
}

// OrganizationID returns the workspace id the client's credential belongs to.
func (c *Client) OrganizationID(ctx context.Context) (string, error) {
	var out struct {
		Organization struct {
			ID string `json:"id"`
		} `json:"organization"`
	}
	if err := c.do(ctx, `query { organization { id } }`, nil, &out); err != nil {
		return "", fmt.Errorf("organization lookup: %w", err)
	}
	return out.Organization.ID, nil
}
