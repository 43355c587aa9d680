package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"FeedCollector/internal/config"
	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
)

// Client talks to a self-hosted inference service exposing POST /complete.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

var _ ports.Oracle = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.LLMConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout.Std()
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     httpClient,
	}
}

type completeRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// Complete posts the prompt and returns the service's text field.
func (c *Client) Complete(ctx context.Context, req domain.Completion) (string, error) {
	if c == nil || c.http == nil {
		return "", fmt.Errorf("inference client is nil")
	}
	if c.endpoint == "" {
		return "", fmt.Errorf("inference client misconfigured")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	var resp struct {
		Text string `json:"text"`
	}
	if err := c.post(ctx, "/complete", completeRequest{
		Model:       model,
		Prompt:      req.Prompt,
		System:      req.SystemPrompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, &resp); err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("inference: empty completion")
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
