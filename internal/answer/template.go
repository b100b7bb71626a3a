package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/zkloci/internal/model"
)

// TemplateComposer renders a fixed-format briefing without a model
type TemplateComposer struct{}

// NewTemplateComposer creates a template composer
func NewTemplateComposer() *TemplateComposer {
	return &TemplateComposer{}
}

// Compose never fails
func (TemplateComposer) Compose(ctx context.Context, question string, intent model.Intent, stats model.CampaignStats) (string, error) {
	var b strings.Builder

	scope := describeScope(stats.Intent)

	if stats.IsEmpty() {
		fmt.Fprintf(&b, "No active verification requests matched %s. ", scope)
		b.WriteString("Try a longer time window or check the provider name.")
		return b.String(), nil
	}

	if stats.Mode == model.ModeFallback {
		b.WriteString("Live zk-loci records are unavailable right now, so these figures are illustrative. ")
	} else {
		b.WriteString("Based on recent zk-loci records, ")
	}

	fmt.Fprintf(&b, "%s had %d %s across %d verification %s, with %d successful (%s success rate).",
		capitalizeFirst(scope, stats.Mode != model.ModeFallback),
		stats.TotalProofs, plural(stats.TotalProofs, "proof", "proofs"),
		len(stats.Requests), plural(len(stats.Requests), "request", "requests"),
		stats.SuccessfulProofs, percent(stats.SuccessRate))

	if target := stats.TargetCount; target > 0 {
		switch {
		case stats.SuccessfulProofs >= target:
			fmt.Fprintf(&b, " That meets the target of %d.", target)
		default:
			fmt.Fprintf(&b, " That is %d short of the target of %d.", target-stats.SuccessfulProofs, target)
		}
	}

	// Distinct users are only known per request
	if len(stats.Requests) == 1 && stats.Requests[0].UniqueUserCount > 0 {
		users := stats.Requests[0].UniqueUserCount
		fmt.Fprintf(&b, " %d distinct %s took part.", users, plural(users, "participant", "participants"))
	}

	return b.String(), nil
}

func describeScope(i model.Intent) string {
	var parts []string
	if i.ProviderName != "" {
		parts = append(parts, i.ProviderName)
	} else {
		parts = append(parts, "all providers")
	}
	if i.UseCase != "" {
		parts = append(parts, fmt.Sprintf("for %s", strings.ReplaceAll(i.UseCase, "_", " ")))
	}
	if i.TimeWindowDays == 1 {
		parts = append(parts, "in the last day")
	} else if i.TimeWindowDays > 1 {
		parts = append(parts, fmt.Sprintf("in the last %d days", i.TimeWindowDays))
	}
	return strings.Join(parts, " ")
}

// capitalizeFirst adjusts the scope to sit mid-sentence or start one
func capitalizeFirst(s string, midSentence bool) string {
	if midSentence || s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func percent(rate float64) string {
	return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.1f", rate*100), "0"), ".") + "%"
}
