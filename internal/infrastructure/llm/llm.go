package llm

import (
	"fmt"
	"strings"

	"FeedCollector/internal/domain"
)

const defaultSystemPrompt = "You are an assistant specialized in analyzing and synthesizing news."

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}

// pickModel prefers the model named by the request over the client default.
func pickModel(req domain.Completion, fallback string) string {
	if m := strings.TrimSpace(req.Model); m != "" {
		return m
	}
	return fallback
}

func validate(provider, apiKey, model string) error {
	if apiKey == "" || model == "" {
		return fmt.Errorf("%s client misconfigured", provider)
	}
	return nil
}
