package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"FeedCollector/internal/config"
	"FeedCollector/internal/domain"
	"FeedCollector/internal/ports"
)

// GeminiClient implements ports.Oracle on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ ports.Oracle = (*GeminiClient)(nil)

// NewGeminiClient creates the underlying genai client. Unlike the other
// providers this can fail, because genai validates the backend eagerly.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (*GeminiClient, error) {
	if err := validate("gemini", cfg.APIKey, cfg.Model); err != nil {
		return nil, err
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if t := cfg.Timeout.Std(); t > 0 {
		cc.HTTPOptions.Timeout = &t
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// Complete runs a single-turn generation with the system prompt as instruction.
func (c *GeminiClient) Complete(ctx context.Context, req domain.Completion) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("gemini client is nil")
	}

	gc := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(safePrompt(req.SystemPrompt), genai.RoleUser),
		Temperature:       genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, pickModel(req, c.model), contents, gc)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini completion: empty response")
	}
	return text, nil
}
