package llm

import (
	"context"
	"fmt"
)

// Client wraps an optional provider. A client without a provider is
// disabled and every completion returns ErrNoProvider.
type Client struct {
	provider Provider
	config   Config
}

// NewClient builds a client from configuration
func NewClient(config Config) (*Client, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}
	return &Client{provider: provider, config: config}, nil
}

// NewClientWithProvider wraps an existing provider
func NewClientWithProvider(provider Provider, config Config) *Client {
	return &Client{provider: provider, config: config}
}

// IsEnabled reports whether a provider is configured
func (c *Client) IsEnabled() bool {
	return c != nil && c.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (c *Client) ProviderName() string {
	if !c.IsEnabled() {
		return ""
	}
	return c.provider.Name()
}

// Provider returns the wrapped provider, which may be nil
func (c *Client) Provider() Provider {
	if c == nil {
		return nil
	}
	return c.provider
}

// Complete forwards to the provider and rejects empty replies
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.IsEnabled() {
		return "", ErrNoProvider
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.config.MaxTokens
	}

	resp, err := c.provider.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", c.provider.Name(), err)
	}
	if resp == nil || resp.Text == "" {
		return "", fmt.Errorf("%s returned an empty completion", c.provider.Name())
	}
	return resp.Text, nil
}
