package intent

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/zkloci/internal/model"
)

var (
	lastNDaysPattern  = regexp.MustCompile(`\b(?:last|past|previous)\s+(\d{1,4})\s+days?\b`)
	lastNWeeksPattern = regexp.MustCompile(`\b(?:last|past|previous)\s+(\d{1,3})\s+weeks?\b`)
	targetPattern     = regexp.MustCompile(`\btarget(?:\s+(?:of|is|was))?\s*:?\s*(\d{1,7})\b`)
)

// fixed phrases checked in order; the first match wins
var windowPhrases = []struct {
	phrase string
	days   int
}{
	{"today", 1},
	{"last 24 hours", 1},
	{"yesterday", 2},
	{"this week", 7},
	{"last week", 7},
	{"past week", 7},
	{"this month", 30},
	{"last month", 30},
	{"past month", 30},
}

// KeywordExtractor matches known names and time phrases without a model
type KeywordExtractor struct {
	providers []string
	useCases  []string
}

// NewKeywordExtractor creates an extractor over known provider names and use cases.
// Longer names are tried first so the most specific one wins.
func NewKeywordExtractor(providers, useCases []string) *KeywordExtractor {
	return &KeywordExtractor{
		providers: byLengthDesc(providers),
		useCases:  byLengthDesc(useCases),
	}
}

// Extract never fails; unmatched fields stay empty
func (e *KeywordExtractor) Extract(ctx context.Context, question string) (model.Intent, error) {
	q := strings.ToLower(strings.Join(strings.Fields(question), " "))

	var out model.Intent
	for _, p := range e.providers {
		if strings.Contains(q, strings.ToLower(p)) {
			out.ProviderName = p
			break
		}
	}
	for _, u := range e.useCases {
		lu := strings.ToLower(u)
		if strings.Contains(q, lu) || strings.Contains(q, strings.ReplaceAll(lu, "_", " ")) {
			out.UseCase = u
			break
		}
	}

	out.TimeWindowDays = windowDays(q)

	if m := targetPattern.FindStringSubmatch(q); m != nil {
		out.TargetCount, _ = strconv.Atoi(m[1])
	}

	return out, nil
}

func windowDays(q string) int {
	if m := lastNDaysPattern.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if m := lastNWeeksPattern.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n * 7
	}
	for _, w := range windowPhrases {
		if strings.Contains(q, w.phrase) {
			return w.days
		}
	}
	return 0
}

func byLengthDesc(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
