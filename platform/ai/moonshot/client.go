// Package moonshot provides a minimal client for Moonshot's (Kimi)
// OpenAI-compatible chat completions API.
package moonshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Config for Kimi
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Message is a single chat message in OpenAI wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client calls the Moonshot chat completions endpoint.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a Moonshot client. The caller bounds each request with a
// context deadline; the client itself carries no timeout.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.moonshot.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "kimi-k2-turbo-preview"
	}
	return &Client{
		config: cfg,
		http:   &http.Client{},
	}
}

// Name returns the configured model identifier.
func (c *Client) Name() string {
	return c.config.Model
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error interface{} `json:"error"`
}

// Complete sends one chat completion request and returns the assistant text.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	payload := completionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: 0.6,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("moonshot request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("moonshot returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode moonshot response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("moonshot error: %v", parsed.Error)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("moonshot returned no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("moonshot returned empty content")
	}
	return text, nil
}
