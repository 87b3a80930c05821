package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// MaxTokens is the fixed response budget for advisory completions.
const MaxTokens = 2048

const anthropicVersion = "2023-06-01"

// Client proxies chat completions to the hosted model. The API key lives only
// here, server-side; it never reaches the HTTP client of this service.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether an API key is present. Without one the chat
// feature degrades to canned responses instead of failing.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// UpstreamError carries the upstream failure status and message so the proxy
// can mirror them to its own caller.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (HTTP %d): %s", e.Status, e.Message)
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete forwards the prompts to the messages endpoint and returns the
// model's text response.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(messageRequest{
		Model:     c.model,
		MaxTokens: MaxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := "API request failed"
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error.Message != "" {
			msg = payload.Error.Message
		}
		return "", &UpstreamError{Status: resp.StatusCode, Message: msg}
	}

	var payload struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("malformed completion response: %w", err)
	}
	if len(payload.Content) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return payload.Content[0].Text, nil
}
