// Package openai implements the model Provider on the OpenAI chat
// completions API, including OpenAI-compatible gateways selected through a
// custom base URL.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/leofalp/sheetflow/providers/model"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second
)

// Provider is a model.Provider backed by an OpenAI-compatible endpoint.
type Provider struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
}

var _ model.Provider = (*Provider)(nil)

// New creates a provider configured from the environment: OPENAI_API_KEY,
// OPENAI_API_BASE_URL (optional) and OPENAI_MODEL (optional).
func New() *Provider {
	config := goopenai.DefaultConfig(os.Getenv("OPENAI_API_KEY"))
	if baseURL := os.Getenv("OPENAI_API_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}

	modelName := os.Getenv("OPENAI_MODEL")
	if modelName == "" {
		modelName = defaultModel
	}

	return &Provider{
		client:  goopenai.NewClientWithConfig(config),
		model:   modelName,
		timeout: defaultTimeout,
	}
}

// WithModel sets the model name used for completions.
func (p *Provider) WithModel(name string) *Provider {
	p.model = name
	return p
}

// WithTimeout sets the per-call timeout.
func (p *Provider) WithTimeout(timeout time.Duration) *Provider {
	p.timeout = timeout
	return p
}

// WithHTTPClient sets a custom HTTP client, recreating the API client with
// the current configuration.
func (p *Provider) WithHTTPClient(httpClient *http.Client) *Provider {
	config := goopenai.DefaultConfig(os.Getenv("OPENAI_API_KEY"))
	if baseURL := os.Getenv("OPENAI_API_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = httpClient
	p.client = goopenai.NewClientWithConfig(config)
	return p
}

// Complete sends the prompt as a single user message and returns the first
// choice's text.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	response, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return response.Choices[0].Message.Content, nil
}
