package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"FeedCollector/internal/config"
	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicClient implements ports.Oracle on the Messages API.
type AnthropicClient struct {
	client anthropic.Client
	model  string
	apiKey string
}

var _ ports.Oracle = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration.
func NewAnthropicClient(cfg config.LLMConfig, httpClient *http.Client) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if t := cfg.Timeout.Std(); t > 0 {
		opts = append(opts, option.WithRequestTimeout(t))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
		apiKey: cfg.APIKey,
	}
}

// Complete sends one user message and concatenates the returned text blocks.
func (c *AnthropicClient) Complete(ctx context.Context, req domain.Completion) (string, error) {
	if c == nil {
		return "", fmt.Errorf("anthropic client is nil")
	}
	model := pickModel(req, c.model)
	if err := validate("anthropic", c.apiKey, model); err != nil {
		return "", err
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		System:      []anthropic.TextBlockParam{{Text: safePrompt(req.SystemPrompt)}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
		Temperature: anthropic.Float(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic completion: no text content")
	}
	return strings.TrimSpace(b.String()), nil
}
