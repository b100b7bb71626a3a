// Package classify labels a question as an analytics query or generic chatter.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/zkloci/internal/llm"
	"github.com/ppiankov/zkloci/internal/model"
)

// Classification modes
const (
	ModeRules = "rules"
	ModeLLM   = "llm"
)

// Classifier maps a question to a route. Implementations never fail;
// anything they cannot decide is generic.
type Classifier interface {
	Classify(ctx context.Context, question string) model.Route
}

// New selects the classifier for mode. The LLM mode needs an enabled client.
// Extra keywords, such as known provider names, extend the rule set.
func New(mode string, client *llm.Client, extra ...string) (Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeRules, "":
		return NewRules(extra...), nil
	case ModeLLM:
		if !client.IsEnabled() {
			return nil, fmt.Errorf("classifier mode %q: %w", ModeLLM, llm.ErrNoProvider)
		}
		return NewLLM(client), nil
	default:
		return nil, fmt.Errorf("unknown classifier mode: %s (supported: rules, llm)", mode)
	}
}
