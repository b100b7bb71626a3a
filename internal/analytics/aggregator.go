// Package analytics computes campaign statistics over verification requests
// and their proofs.
package analytics

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/zkloci/internal/log"
	"github.com/ppiankov/zkloci/internal/model"
	"github.com/ppiankov/zkloci/internal/store"
)

// Aggregator scopes and aggregates proofs for an intent.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	reader       store.Reader
	defaults     model.IntentDefaults
	queryTimeout time.Duration
	fallback     model.FallbackConfig
	now          func() time.Time
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithClock overrides the time source used to resolve the window cutoff
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithQueryTimeout bounds each store query
func WithQueryTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		a.queryTimeout = d
	}
}

// WithFallback sets the values synthesized while the store is unavailable
func WithFallback(cfg model.FallbackConfig) Option {
	return func(a *Aggregator) {
		a.fallback = cfg
	}
}

// NewAggregator creates an aggregator over reader
func NewAggregator(reader store.Reader, defaults model.IntentDefaults, opts ...Option) *Aggregator {
	if reader == nil {
		reader = store.NewUnavailable(errors.New("no reader configured"))
	}
	a := &Aggregator{
		reader:   reader,
		defaults: defaults,
		fallback: model.DefaultFallbackConfig(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Defaults returns the intent defaults applied by this aggregator
func (a *Aggregator) Defaults() model.IntentDefaults {
	return a.defaults
}

// ComputeCampaignStats returns statistics for the requests and proofs in
// the intent's scope. It never fails: an unreachable store, a query error
// or a timeout produces fallback stats instead.
func (a *Aggregator) ComputeCampaignStats(ctx context.Context, intent model.Intent) model.CampaignStats {
	resolved := intent.Resolve(a.defaults)
	now := a.now().UTC()

	ctx = log.With(ctx,
		zap.String("provider", resolved.ProviderName),
		zap.String("use_case", resolved.UseCase),
		zap.Int("window_days", resolved.TimeWindowDays),
	)

	if a.reader.Status() != store.StatusAvailable {
		log.Debug(ctx, "store unavailable, using fallback stats")
		return FallbackStats(resolved, a.fallback, now)
	}

	stats, err := a.aggregate(ctx, resolved, now)
	if err != nil {
		log.Warn(ctx, "aggregation failed, using fallback stats", zap.Error(err))
		return FallbackStats(resolved, a.fallback, now)
	}
	return stats
}

func (a *Aggregator) aggregate(ctx context.Context, intent model.Intent, now time.Time) (model.CampaignStats, error) {
	cutoff := Cutoff(now, intent.TimeWindowDays)

	requests, err := a.findRequests(ctx, store.RequestFilter{
		Status:       model.StatusActive,
		CreatedSince: cutoff,
		ProviderName: intent.ProviderName,
		UseCase:      intent.UseCase,
	})
	if err != nil {
		return model.CampaignStats{}, err
	}
	if len(requests) == 0 {
		return model.EmptyStats(intent), nil
	}

	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.RequestID)
	}

	proofs, err := a.findProofs(ctx, store.ProofFilter{RequestIDs: ids, CreatedSince: cutoff})
	if err != nil {
		return model.CampaignStats{}, err
	}

	return Summarize(intent, requests, proofs, cutoff), nil
}

func (a *Aggregator) findRequests(ctx context.Context, filter store.RequestFilter) ([]model.VerificationRequest, error) {
	ctx, cancel := a.queryContext(ctx)
	defer cancel()
	return a.reader.FindRequests(ctx, filter)
}

func (a *Aggregator) findProofs(ctx context.Context, filter store.ProofFilter) ([]model.ProofResult, error) {
	ctx, cancel := a.queryContext(ctx)
	defer cancel()
	return a.reader.FindProofs(ctx, filter)
}

func (a *Aggregator) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.queryTimeout)
}

// Cutoff returns the start of a window of days ending at now. Windows
// longer than model.MaxTimeWindowDays are clamped.
func Cutoff(now time.Time, days int) time.Time {
	if days > model.MaxTimeWindowDays {
		days = model.MaxTimeWindowDays
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

type proofTally struct {
	total      int
	successful int
	users      map[string]struct{}
}

// Summarize groups proofs by request and builds the stats for intent.
// Every request appears once in input order. Proofs referencing other
// requests or created before cutoff are ignored.
func Summarize(intent model.Intent, requests []model.VerificationRequest, proofs []model.ProofResult, cutoff time.Time) model.CampaignStats {
	stats := model.EmptyStats(intent)

	tallies := make(map[string]*proofTally, len(requests))
	for _, r := range requests {
		if _, seen := tallies[r.RequestID]; seen {
			continue
		}
		tallies[r.RequestID] = &proofTally{users: make(map[string]struct{})}
	}

	for _, p := range proofs {
		t, ok := tallies[p.RequestID]
		if !ok || p.CreatedAt.Before(cutoff) {
			continue
		}
		t.total++
		if p.Result {
			t.successful++
		}
		t.users[p.UserID] = struct{}{}
	}

	emitted := make(map[string]bool, len(requests))
	for _, r := range requests {
		if emitted[r.RequestID] {
			continue
		}
		emitted[r.RequestID] = true

		t := tallies[r.RequestID]
		stats.Requests = append(stats.Requests, model.RequestSummary{
			RequestID:             r.RequestID,
			ProviderName:          r.ProviderName,
			UseCase:               r.UseCase,
			Description:           r.Description,
			AttributeRequirements: r.AttributeRequirements,
			CreatedAt:             r.CreatedAt,
			ExpiresAt:             r.ExpiresAt,
			TotalProofs:           t.total,
			SuccessfulProofs:      t.successful,
			UniqueUserCount:       len(t.users),
		})
		stats.TotalProofs += t.total
		stats.SuccessfulProofs += t.successful
	}

	stats.SuccessRate = model.SuccessRate(stats.SuccessfulProofs, stats.TotalProofs)
	return stats
}
