// Package llm wraps the OpenAI-compatible chat API behind a small client
// that always asks for JSON and hands back raw bytes for the caller to
// decode. Analyzer packages own their response shapes and fallbacks.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pagesift/pagesift/internal/cache"
	"github.com/pagesift/pagesift/internal/model"
)

// Client is a thin wrapper over the chat completion API.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	cache     cache.Cache
	cacheTTL  time.Duration
}

// New builds a Client from config. A missing API key returns a disabled
// client rather than an error so the pipeline can degrade to fallbacks.
func New(cfg model.LLMConfig) *Client {
	if cfg.APIKey == "" {
		return &Client{}
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:       openai.NewClientWithConfig(apiCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// WithCache attaches a response cache. Identical requests within the TTL
// return the cached body without a network call.
func (c *Client) WithCache(store cache.Cache, ttl time.Duration) *Client {
	c.cache = store
	c.cacheTTL = ttl
	return c
}

// Enabled reports whether the client has credentials to call the API.
func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

// CompleteJSON sends one system+user exchange and returns the raw response
// content with any Markdown code fences stripped. The caller unmarshals and
// validates the shape it expects.
func (c *Client) CompleteJSON(ctx context.Context, system, prompt string, temperature float32) ([]byte, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("llm client disabled: no API key configured")
	}

	var key string
	if c.cache != nil {
		key = cache.ResponseKey(c.model, system, prompt, temperature)
		if cached, found := c.cache.Get(key); found {
			return cached, nil
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: empty response")
	}

	body := []byte(stripFences(resp.Choices[0].Message.Content))
	if c.cache != nil {
		_ = c.cache.Set(key, body, c.cacheTTL)
	}
	return body, nil
}

// stripFences removes a surrounding Markdown code fence. Models add these
// despite being told to return bare JSON.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
