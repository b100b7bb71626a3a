package intent

import (
	"context"
	"fmt"

	"github.com/ppiankov/zkloci/internal/llm"
	"github.com/ppiankov/zkloci/internal/model"
)

const extractSystem = "You extract structured info from questions about zk-loci verification analytics."

const extractPrompt = `Return ONLY valid JSON with these keys:
- "providerName" (string or null)
- "useCase" (string or null)
- "timeWindowDays" (int or null)
- "targetCount" (int or null)

If something is not mentioned, use null. Do not add extra keys.

Question:
%s`

// LLMExtractor asks a language model for the intent
type LLMExtractor struct {
	client *llm.Client
}

// NewLLMExtractor creates an LLM-backed extractor
func NewLLMExtractor(client *llm.Client) *LLMExtractor {
	return &LLMExtractor{client: client}
}

// Extract returns the parsed intent or an error wrapping ErrUnparsable
// or the provider failure
func (e *LLMExtractor) Extract(ctx context.Context, question string) (model.Intent, error) {
	reply, err := e.client.Complete(ctx, llm.CompletionRequest{
		System:    extractSystem,
		Prompt:    fmt.Sprintf(extractPrompt, question),
		MaxTokens: 200,
		JSONMode:  true,
	})
	if err != nil {
		return model.Intent{}, fmt.Errorf("extract intent: %w", err)
	}
	return ParseIntent(reply)
}
