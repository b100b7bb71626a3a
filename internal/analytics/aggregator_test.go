package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/zkloci/internal/log"
	"github.com/ppiankov/zkloci/internal/model"
	"github.com/ppiankov/zkloci/internal/store"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func newAggregator(r store.Reader, opts ...Option) *Aggregator {
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return NewAggregator(r, model.DefaultIntentDefaults(), opts...)
}

func demoAggregator() *Aggregator {
	return newAggregator(store.NewMemory(store.DemoFixtures(now)))
}

// stubReader returns canned results or errors and records the filters it saw
type stubReader struct {
	status      store.Status
	requests    []model.VerificationRequest
	proofs      []model.ProofResult
	requestErr  error
	proofErr    error
	block       bool
	proofFilter store.ProofFilter
}

func (s *stubReader) Status() store.Status { return s.status }

func (s *stubReader) FindRequests(ctx context.Context, f store.RequestFilter) ([]model.VerificationRequest, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.requestErr != nil {
		return nil, s.requestErr
	}
	var out []model.VerificationRequest
	for _, r := range s.requests {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubReader) FindProofs(ctx context.Context, f store.ProofFilter) ([]model.ProofResult, error) {
	s.proofFilter = f
	if s.proofErr != nil {
		return nil, s.proofErr
	}
	return s.proofs, nil
}

func TestComputeCampaignStatsNoMatch(t *testing.T) {
	agg := demoAggregator()

	stats := agg.ComputeCampaignStats(context.Background(), model.Intent{ProviderName: "Nobody Clinic"})

	assert.Equal(t, model.ModeObserved, stats.Mode)
	assert.Equal(t, 0, stats.TotalProofs)
	assert.Equal(t, 0, stats.SuccessfulProofs)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.NotNil(t, stats.Requests)
	assert.Empty(t, stats.Requests)
	assert.Equal(t, "Nobody Clinic", stats.ProviderName)
	assert.Equal(t, model.DefaultTimeWindowDays, stats.TimeWindowDays)
	assert.Equal(t, model.DefaultTargetCount, stats.TargetCount)
}

func TestComputeCampaignStatsScopedProvider(t *testing.T) {
	agg := demoAggregator()

	stats := agg.ComputeCampaignStats(context.Background(), model.Intent{
		ProviderName:   store.DemoBloodProvider,
		TimeWindowDays: 7,
	})

	require.Len(t, stats.Requests, 1)
	entry := stats.Requests[0]
	assert.Equal(t, store.DemoBloodProvider, entry.ProviderName)
	assert.Equal(t, 5, entry.TotalProofs)
	assert.Equal(t, 4, entry.SuccessfulProofs)
	assert.Equal(t, 5, entry.UniqueUserCount)
	assert.Equal(t, 5, stats.TotalProofs)
	assert.Equal(t, 4, stats.SuccessfulProofs)
	assert.Equal(t, 0.8, stats.SuccessRate)
	assert.Equal(t, model.ModeObserved, stats.Mode)
}

func TestComputeCampaignStatsActiveOnly(t *testing.T) {
	agg := demoAggregator()

	stats := agg.ComputeCampaignStats(context.Background(), model.Intent{UseCase: "blood_donation", TimeWindowDays: 30})

	// The expired blood bank request is never counted
	require.Len(t, stats.Requests, 1)
	assert.Equal(t, store.DemoBloodProvider, stats.Requests[0].ProviderName)
}

func TestComputeCampaignStatsTotalsAreSums(t *testing.T) {
	agg := demoAggregator()
	ctx := context.Background()

	first := agg.ComputeCampaignStats(ctx, model.Intent{})
	second := agg.ComputeCampaignStats(ctx, model.Intent{})
	assert.Equal(t, first, second)

	require.Len(t, first.Requests, 2)
	var total, successful int
	for _, r := range first.Requests {
		assert.LessOrEqual(t, r.SuccessfulProofs, r.TotalProofs)
		assert.LessOrEqual(t, r.UniqueUserCount, r.TotalProofs)
		total += r.TotalProofs
		successful += r.SuccessfulProofs
	}
	assert.Equal(t, total, first.TotalProofs)
	assert.Equal(t, successful, first.SuccessfulProofs)
	assert.Equal(t, 8, first.TotalProofs)
	assert.Equal(t, 6, first.SuccessfulProofs)
	assert.Equal(t, 0.75, first.SuccessRate)
	assert.GreaterOrEqual(t, first.SuccessRate, 0.0)
	assert.LessOrEqual(t, first.SuccessRate, 1.0)
}

func TestProofWindowAppliesToProofs(t *testing.T) {
	req := model.VerificationRequest{
		RequestID:    "old-request",
		ProviderName: "Long Running Drive",
		Status:       model.StatusActive,
		CreatedAt:    now.Add(-10 * 24 * time.Hour),
	}
	proofs := []model.ProofResult{
		{ProofID: "p-old", RequestID: req.RequestID, UserID: "u1", Result: true, CreatedAt: now.Add(-5 * 24 * time.Hour)},
		{ProofID: "p-new", RequestID: req.RequestID, UserID: "u2", Result: true, CreatedAt: now.Add(-12 * time.Hour)},
	}
	cutoff := Cutoff(now, 1)

	stats := Summarize(model.Intent{TimeWindowDays: 1}, []model.VerificationRequest{req}, proofs, cutoff)

	require.Len(t, stats.Requests, 1)
	assert.Equal(t, 1, stats.TotalProofs)
	assert.Equal(t, 1, stats.Requests[0].TotalProofs)
	assert.Equal(t, 1, stats.Requests[0].UniqueUserCount)
}

func TestHugeWindowIsClamped(t *testing.T) {
	for _, days := range []int{model.MaxTimeWindowDays, 106752, 200000, 2147483647} {
		assert.True(t, Cutoff(now, days).Before(now), "cutoff for %d days must precede now", days)
	}

	req := model.VerificationRequest{
		RequestID:    "req-old",
		ProviderName: "Archive Clinic",
		Status:       model.StatusActive,
		CreatedAt:    now.AddDate(-3, 0, 0),
	}
	r := &stubReader{
		status:   store.StatusAvailable,
		requests: []model.VerificationRequest{req},
		proofs: []model.ProofResult{
			{ProofID: "p1", RequestID: req.RequestID, UserID: "u1", Result: true, CreatedAt: now.AddDate(-2, 0, 0)},
		},
	}

	stats := newAggregator(r).ComputeCampaignStats(context.Background(), model.Intent{TimeWindowDays: 200000})

	assert.Equal(t, model.ModeObserved, stats.Mode)
	assert.Equal(t, model.MaxTimeWindowDays, stats.TimeWindowDays)
	require.Len(t, stats.Requests, 1)
	assert.Equal(t, 1, stats.TotalProofs)
	assert.Equal(t, 1, stats.SuccessfulProofs)
}

func TestProofWindowPassedToReader(t *testing.T) {
	r := &stubReader{
		status: store.StatusAvailable,
		requests: []model.VerificationRequest{
			{RequestID: "r1", Status: model.StatusActive, CreatedAt: now.Add(-time.Hour)},
		},
	}
	agg := newAggregator(r)

	agg.ComputeCampaignStats(context.Background(), model.Intent{TimeWindowDays: 3})

	assert.Equal(t, []string{"r1"}, r.proofFilter.RequestIDs)
	assert.Equal(t, now.Add(-72*time.Hour), r.proofFilter.CreatedSince)
}

func TestSummarizeGrouping(t *testing.T) {
	requests := []model.VerificationRequest{
		{RequestID: "a", CreatedAt: now.Add(-2 * time.Hour)},
		{RequestID: "b", CreatedAt: now.Add(-time.Hour)},
	}
	proofs := []model.ProofResult{
		{RequestID: "a", UserID: "u1", Result: true, CreatedAt: now},
		{RequestID: "a", UserID: "u1", Result: false, CreatedAt: now},
		{RequestID: "a", UserID: "u2", Result: true, CreatedAt: now},
		{RequestID: "orphan", UserID: "u3", Result: true, CreatedAt: now},
	}

	stats := Summarize(model.Intent{}, requests, proofs, now.Add(-24*time.Hour))

	require.Len(t, stats.Requests, 2)
	assert.Equal(t, "a", stats.Requests[0].RequestID)
	assert.Equal(t, 3, stats.Requests[0].TotalProofs)
	assert.Equal(t, 2, stats.Requests[0].SuccessfulProofs)
	assert.Equal(t, 2, stats.Requests[0].UniqueUserCount)

	// A request with no proofs still appears, with zeros
	assert.Equal(t, "b", stats.Requests[1].RequestID)
	assert.Equal(t, 0, stats.Requests[1].TotalProofs)
	assert.Equal(t, 0, stats.Requests[1].UniqueUserCount)

	assert.Equal(t, 3, stats.TotalProofs)
	assert.Equal(t, 0.667, stats.SuccessRate)
}

func TestSummarizeDuplicateRequestsAppearOnce(t *testing.T) {
	requests := []model.VerificationRequest{{RequestID: "a"}, {RequestID: "a"}}
	proofs := []model.ProofResult{{RequestID: "a", UserID: "u", Result: true, CreatedAt: now}}

	stats := Summarize(model.Intent{}, requests, proofs, now.Add(-time.Hour))

	require.Len(t, stats.Requests, 1)
	assert.Equal(t, 1, stats.TotalProofs)
}

func TestFallbackWhenUnavailable(t *testing.T) {
	agg := newAggregator(store.NewUnavailable(errors.New("not provisioned")))

	stats := agg.ComputeCampaignStats(context.Background(), model.Intent{})

	assertValidFallback(t, stats)
	assert.Equal(t, "zk-loci demo provider", stats.Requests[0].ProviderName)
	assert.Equal(t, "generic-use-case", stats.Requests[0].UseCase)
	assert.Equal(t, 50, stats.TotalProofs)
	assert.Equal(t, 47, stats.SuccessfulProofs)
	assert.Equal(t, 0.94, stats.SuccessRate)
	assert.Equal(t, "L1", stats.Requests[0].AttributeRequirements["locality"])
	assert.Equal(t, "O+", stats.Requests[0].AttributeRequirements["bloodType"])
}

func TestFallbackKeepsIntentScope(t *testing.T) {
	agg := newAggregator(store.NewUnavailable(nil))

	intent := model.Intent{ProviderName: store.DemoBloodProvider, UseCase: "blood_donation", TimeWindowDays: 3}
	stats := agg.ComputeCampaignStats(context.Background(), intent)

	assertValidFallback(t, stats)
	assert.Equal(t, store.DemoBloodProvider, stats.ProviderName)
	assert.Equal(t, store.DemoBloodProvider, stats.Requests[0].ProviderName)
	assert.Equal(t, "blood_donation", stats.Requests[0].UseCase)
	assert.Equal(t, 3, stats.TimeWindowDays)
}

func TestFallbackOnQueryError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := log.NewContext(context.Background(), zap.New(core))

	tests := []struct {
		name   string
		reader *stubReader
	}{
		{"request query fails", &stubReader{status: store.StatusAvailable, requestErr: store.ErrUnavailable}},
		{"proof query fails", &stubReader{
			status:   store.StatusAvailable,
			requests: []model.VerificationRequest{{RequestID: "r1", Status: model.StatusActive, CreatedAt: now}},
			proofErr: errors.New("relation does not exist"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := newAggregator(tt.reader).ComputeCampaignStats(ctx, model.Intent{})
			assertValidFallback(t, stats)
		})
	}

	assert.Equal(t, 2, logs.FilterMessage("aggregation failed, using fallback stats").Len())
}

func TestFallbackOnTimeout(t *testing.T) {
	r := &stubReader{status: store.StatusAvailable, block: true}
	agg := newAggregator(r, WithQueryTimeout(20*time.Millisecond))

	done := make(chan model.CampaignStats, 1)
	go func() {
		done <- agg.ComputeCampaignStats(context.Background(), model.Intent{})
	}()

	select {
	case stats := <-done:
		assertValidFallback(t, stats)
	case <-time.After(2 * time.Second):
		t.Fatal("aggregation did not honor the query timeout")
	}
}

func TestFallbackCustomConfig(t *testing.T) {
	cfg := model.FallbackConfig{
		ProviderName:     "Demo",
		UseCase:          "demo",
		TotalProofs:      10,
		SuccessfulProofs: 20,
	}
	stats := FallbackStats(model.Intent{}, cfg, now)

	assertValidFallback(t, stats)
	assert.Equal(t, 10, stats.SuccessfulProofs)
	assert.Equal(t, 1.0, stats.SuccessRate)
	assert.Empty(t, stats.Requests[0].AttributeRequirements)
}

func TestFallbackIsDeterministic(t *testing.T) {
	a := FallbackStats(model.Intent{ProviderName: "X"}, model.DefaultFallbackConfig(), now)
	b := FallbackStats(model.Intent{ProviderName: "X"}, model.DefaultFallbackConfig(), now)
	assert.Equal(t, a, b)
}

func TestNilReaderFallsBack(t *testing.T) {
	agg := NewAggregator(nil, model.DefaultIntentDefaults())
	assertValidFallback(t, agg.ComputeCampaignStats(context.Background(), model.Intent{}))
}

func assertValidFallback(t *testing.T, stats model.CampaignStats) {
	t.Helper()
	assert.Equal(t, model.ModeFallback, stats.Mode)
	require.Len(t, stats.Requests, 1)
	assert.Greater(t, stats.TotalProofs, 0)
	assert.LessOrEqual(t, stats.SuccessfulProofs, stats.TotalProofs)
	assert.Equal(t, stats.Requests[0].TotalProofs, stats.TotalProofs)
	assert.NotEmpty(t, stats.Requests[0].RequestID)
	assert.GreaterOrEqual(t, stats.SuccessRate, 0.0)
	assert.LessOrEqual(t, stats.SuccessRate, 1.0)
}
