package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"FeedCollector/internal/config"
	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
)

// OpenAIClient implements ports.Oracle backed by OpenAI-compatible chat APIs.
type OpenAIClient struct {
	client openai.Client
	model  string
	apiKey string
}

var _ ports.Oracle = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration. Retries are left to the
// caller, so the SDK's own retry loop is disabled.
func NewOpenAIClient(cfg config.LLMConfig, httpClient *http.Client) *OpenAIClient {
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

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		apiKey: cfg.APIKey,
	}
}

// Complete sends the prompt as a single user turn and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req domain.Completion) (string, error) {
	if c == nil {
		return "", fmt.Errorf("openai client is nil")
	}
	model := pickModel(req, c.model)
	if err := validate("openai", c.apiKey, model); err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(safePrompt(req.SystemPrompt)),
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
