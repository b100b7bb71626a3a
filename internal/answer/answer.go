// Package answer turns campaign statistics into a short prose briefing.
package answer

import (
	"context"

	"github.com/ppiankov/zkloci/internal/model"
)

// Composer writes the answer for a question given its intent and stats
type Composer interface {
	Compose(ctx context.Context, question string, intent model.Intent, stats model.CampaignStats) (string, error)
}
