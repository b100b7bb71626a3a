package llm

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when an LLM-backed capability is used without a configured provider
var ErrNoProvider = errors.New("no LLM provider configured")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a single-turn prompt and returns the model's text reply
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one completion
type CompletionRequest struct {
	// System sets the assistant's role and rules
	System string

	// Prompt is the user turn
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling; zero means the most deterministic output
	Temperature float32

	// JSONMode asks the provider to answer with a single JSON object
	JSONMode bool
}

// CompletionResponse contains the model's reply
type CompletionResponse struct {
	// Text is the trimmed reply
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// MaxRetries for transient HTTP failures
	MaxRetries int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:   "", // Disabled by default
		Model:      "",
		Timeout:    30,
		MaxTokens:  600,
		MaxRetries: 2,
	}
}

// jsonInstruction is appended to the system prompt for providers without a native JSON mode
const jsonInstruction = "Respond with a single JSON object and nothing else."

func pick(first, second, fallback string) string {
	if first != "" {
		return first
	}
	if second != "" {
		return second
	}
	return fallback
}

func pickInt(first, second, fallback int) int {
	if first > 0 {
		return first
	}
	if second > 0 {
		return second
	}
	return fallback
}
