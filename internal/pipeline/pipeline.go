// Package pipeline routes a question through classification, intent
// extraction, aggregation and answer composition.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/zkloci/internal/answer"
	"github.com/ppiankov/zkloci/internal/classify"
	"github.com/ppiankov/zkloci/internal/intent"
	"github.com/ppiankov/zkloci/internal/log"
	"github.com/ppiankov/zkloci/internal/model"
)

// StatsSource computes campaign stats and never fails
type StatsSource interface {
	ComputeCampaignStats(ctx context.Context, intent model.Intent) model.CampaignStats
}

// Orchestrator answers questions. It keeps no per-question state and is
// safe for concurrent use.
type Orchestrator struct {
	classifier  classify.Classifier
	extractor   intent.Extractor
	stats       StatsSource
	composer    answer.Composer
	stepTimeout time.Duration
}

// New creates an orchestrator. A zero stepTimeout leaves steps bounded only by ctx.
func New(c classify.Classifier, e intent.Extractor, s StatsSource, a answer.Composer, stepTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		classifier:  c,
		extractor:   e,
		stats:       s,
		composer:    a,
		stepTimeout: stepTimeout,
	}
}

// HandleQuestion runs the full flow. Every internal failure maps to a
// degraded but well-formed response.
func (o *Orchestrator) HandleQuestion(ctx context.Context, question string) model.QueryResponse {
	ctx = log.With(ctx, zap.String("question_id", uuid.NewString()))

	if strings.TrimSpace(question) == "" {
		log.Debug(ctx, "empty question routed to generic")
		return genericResponse()
	}

	route := o.classify(ctx, question)
	if route != model.RouteAnalytics {
		log.Debug(ctx, "question routed to generic", zap.String("route", string(route)))
		return genericResponse()
	}

	extracted := o.extract(ctx, question)
	stats := o.computeStats(ctx, extracted)

	return model.QueryResponse{
		Answer:   o.compose(ctx, question, stats),
		Route:    model.RouteAnalytics,
		RawStats: &stats,
	}
}

func (o *Orchestrator) classify(ctx context.Context, question string) model.Route {
	ctx, cancel := o.stepContext(ctx)
	defer cancel()
	return o.classifier.Classify(ctx, question)
}

func (o *Orchestrator) extract(ctx context.Context, question string) model.Intent {
	ctx, cancel := o.stepContext(ctx)
	defer cancel()

	out, err := o.extractor.Extract(ctx, question)
	if err != nil {
		log.Warn(ctx, "intent extraction failed, using default intent", zap.Error(err))
		return model.Intent{}
	}
	return out
}

func (o *Orchestrator) computeStats(ctx context.Context, in model.Intent) model.CampaignStats {
	ctx, cancel := o.stepContext(ctx)
	defer cancel()
	return o.stats.ComputeCampaignStats(ctx, in)
}

func (o *Orchestrator) compose(ctx context.Context, question string, stats model.CampaignStats) string {
	ctx, cancel := o.stepContext(ctx)
	defer cancel()

	text, err := o.composer.Compose(ctx, question, stats.Intent, stats)
	if err != nil {
		log.Warn(ctx, "answer composition failed, using placeholder", zap.Error(err))
		return model.PlaceholderAnswer
	}
	if strings.TrimSpace(text) == "" {
		log.Warn(ctx, "answer composition returned no text, using placeholder")
		return model.PlaceholderAnswer
	}
	return text
}

func (o *Orchestrator) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.stepTimeout)
}

func genericResponse() model.QueryResponse {
	return model.QueryResponse{
		Answer: model.GenericAnswer,
		Route:  model.RouteGeneric,
	}
}
