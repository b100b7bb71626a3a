package classify

import (
	"context"
	"regexp"
	"strings"

	"github.com/ppiankov/zkloci/internal/model"
)

var domainKeywords = []string{
	"blood", "donor", "donors", "b+", "o+", "o-", "ab+", "ab-",
	"donation drive", "donation campaign",
}

// verificationTerms must appear as whole words, so "waterproof" stays generic
var verificationTerms = regexp.MustCompile(`\b(?:proofs?|verifications?|success rates?)\b`)

var campaignKeywords = []string{
	"locality", "l1", "l2", "institution a", "institution b",
	"turnout", "campaign", "participation", "drive", "target",
	"how many people", "how many donors",
}

// Rules matches lowercase keywords against the question
type Rules struct {
	keywords []string
}

// NewRules creates a rule-based classifier over the built-in keyword sets
// plus any extra terms, such as known provider names
func NewRules(extra ...string) *Rules {
	keywords := make([]string, 0, len(domainKeywords)+len(campaignKeywords)+len(extra))
	keywords = append(keywords, domainKeywords...)
	keywords = append(keywords, campaignKeywords...)
	for _, k := range extra {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &Rules{keywords: keywords}
}

// Classify returns RouteAnalytics when any keyword is a substring of the
// question or a verification term appears as a word
func (r *Rules) Classify(ctx context.Context, question string) model.Route {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return model.RouteGeneric
	}
	for _, k := range r.keywords {
		if strings.Contains(q, k) {
			return model.RouteAnalytics
		}
	}
	if verificationTerms.MatchString(q) {
		return model.RouteAnalytics
	}
	return model.RouteGeneric
}
