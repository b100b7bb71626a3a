package answer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/zkloci/internal/llm"
	"github.com/ppiankov/zkloci/internal/model"
)

const briefingSystem = `You are "HealthInsight Gov Assistant", helping a government health officer understand verification and blood donation activity recorded by zk-loci.

Audience: a non-technical officer who wants clear answers in plain English.

Rules:
- Answer in 3 to 6 simple sentences, like a concise briefing.
- Use the exact counts from the stats. Mention the success rate as a percentage and compare it with targetCount when relevant.
- If "mode" is "observed", say the figures come from recent zk-loci records.
- If "mode" is "fallback", say live records are unavailable right now and the figures are illustrative.
- If no requests matched, say so plainly and suggest widening the time window or checking the provider name.
- For planning questions, give a realistic range based on the observed success rate.
- Do not talk about SQL, databases, or technical implementation.`

const briefingPrompt = `Question from officer:
%s

Structured intent (JSON):
%s

Aggregated stats from zk-loci backend (JSON):
%s`

// LLMComposer writes the briefing with a language model
type LLMComposer struct {
	client *llm.Client
}

// NewLLMComposer creates an LLM-backed composer
func NewLLMComposer(client *llm.Client) *LLMComposer {
	return &LLMComposer{client: client}
}

// Compose sends the question with JSON-encoded intent and stats
func (c *LLMComposer) Compose(ctx context.Context, question string, intent model.Intent, stats model.CampaignStats) (string, error) {
	intentJSON, err := json.Marshal(intent)
	if err != nil {
		return "", fmt.Errorf("encode intent: %w", err)
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("encode stats: %w", err)
	}

	text, err := c.client.Complete(ctx, llm.CompletionRequest{
		System:      briefingSystem,
		Prompt:      fmt.Sprintf(briefingPrompt, question, intentJSON, statsJSON),
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("compose answer: %w", err)
	}
	return text, nil
}
