package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	Provider string
	Model    string
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Client binds a Provider to one model.
type Client struct {
	provider Provider
	config   Config
}

func NewClient(cfg Config) (*Client, error) {
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{provider: provider, config: cfg}, nil
}

// NewClientWithProvider is used when the provider is built elsewhere, e.g. in tests.
func NewClientWithProvider(provider Provider, model string) *Client {
	return &Client{provider: provider, config: Config{Model: model}}
}

func newProvider(cfg Config) (Provider, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("llm provider is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key is required")
	}

	opts := []OpenAIOption{WithOpenAITimeout(cfg.Timeout)}
	switch cfg.Provider {
	case "openrouter":
		opts = append(opts,
			WithOpenAIEndpoint(defaultOpenRouterEndpoint),
			WithReasoning(true),
			WithOpenAIHeader("X-Title", "DataChat"),
		)
	case "openai-chat":
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	if cfg.Endpoint != "" {
		opts = append(opts, WithOpenAIEndpoint(cfg.Endpoint))
	}
	return NewOpenAIProvider(cfg.APIKey, opts...), nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.config.Model
}

// Chat sends messages and returns the reply with surrounding whitespace
// removed. An empty reply is not an error.
func (c *Client) Chat(ctx context.Context, messages ...Message) (string, error) {
	if c == nil || c.provider == nil {
		return "", errors.New("llm client is not configured")
	}
	start := time.Now()
	resp, err := c.provider.Complete(ctx, CompletionRequest{
		Model:    c.config.Model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	slog.Debug("llm completion",
		"model", resp.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", time.Since(start),
	)
	return strings.TrimSpace(resp.Content), nil
}
