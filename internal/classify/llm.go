package classify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/zkloci/internal/llm"
	"github.com/ppiankov/zkloci/internal/log"
	"github.com/ppiankov/zkloci/internal/model"
)

const routerSystem = "You are a router for zk-loci queries."

const routerPrompt = `If the question is about any of:
- verification requests, proofs, proof results, zk proofs
- stats, providers, success rate, failure rate, user reputation
- blood donation drives, donors, localities, institutions, campaigns, turnout
- the zk-loci system itself
answer "verification_analytics". Otherwise answer "generic".

Return ONLY one word:
verification_analytics
generic

User question:
%s`

// analyticsLabel is the label the router prompt asks for
const analyticsLabel = "verification_analytics"

// LLM asks a language model to route the question
type LLM struct {
	client *llm.Client
}

// NewLLM creates an LLM-backed classifier
func NewLLM(client *llm.Client) *LLM {
	return &LLM{client: client}
}

// Classify routes to analytics only on an exact label match.
// Errors and unexpected replies are generic.
func (c *LLM) Classify(ctx context.Context, question string) model.Route {
	if strings.TrimSpace(question) == "" {
		return model.RouteGeneric
	}

	reply, err := c.client.Complete(ctx, llm.CompletionRequest{
		System:    routerSystem,
		Prompt:    fmt.Sprintf(routerPrompt, question),
		MaxTokens: 10,
	})
	if err != nil {
		log.Warn(ctx, "classifier call failed, routing to generic", zap.Error(err))
		return model.RouteGeneric
	}

	return parseLabel(reply)
}

func parseLabel(reply string) model.Route {
	label := strings.ToLower(strings.TrimSpace(reply))
	label = strings.Trim(label, "\"'`.")
	switch label {
	case analyticsLabel, string(model.RouteAnalytics):
		return model.RouteAnalytics
	default:
		return model.RouteGeneric
	}
}
