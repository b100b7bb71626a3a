package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/zkloci/internal/cache"
	"github.com/ppiankov/zkloci/internal/llm"
	"github.com/ppiankov/zkloci/internal/model"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want model.Intent
	}{
		{
			name: "plain object",
			raw:  `{"providerName": "City Hospital Blood Drive", "useCase": null, "timeWindowDays": 7, "targetCount": null}`,
			want: model.Intent{ProviderName: "City Hospital Blood Drive", TimeWindowDays: 7},
		},
		{
			name: "code fence",
			raw:  "```json\n{\"useCase\": \"blood_donation\", \"targetCount\": 40}\n```",
			want: model.Intent{UseCase: "blood_donation", TargetCount: 40},
		},
		{
			name: "surrounding prose",
			raw:  `Sure! Here is the JSON: {"timeWindowDays": "3"} Hope that helps.`,
			want: model.Intent{TimeWindowDays: 3},
		},
		{
			name: "invalid numbers become zero",
			raw:  `{"timeWindowDays": -2, "targetCount": 2.5}`,
			want: model.Intent{},
		},
		{
			name: "string null",
			raw:  `{"providerName": "null", "useCase": "  workplace_attendance "}`,
			want: model.Intent{UseCase: "workplace_attendance"},
		},
		{
			name: "wrong types ignored",
			raw:  `{"providerName": 12, "timeWindowDays": true}`,
			want: model.Intent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntent(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIntentUnparsable(t *testing.T) {
	for _, raw := range []string{"", "I don't know", "{not json}", "} {"} {
		_, err := ParseIntent(raw)
		assert.ErrorIs(t, err, ErrUnparsable, "input %q", raw)
	}
}

func TestKeywordExtractor(t *testing.T) {
	e := NewKeywordExtractor(
		[]string{"City Hospital Blood Drive", "Metro Office Attendance", "City Hospital"},
		[]string{"blood_donation", "workplace_attendance"},
	)

	tests := []struct {
		question string
		want     model.Intent
	}{
		{
			"What's the success rate for City Hospital Blood Drive this week?",
			model.Intent{ProviderName: "City Hospital Blood Drive", TimeWindowDays: 7},
		},
		{
			"how did city hospital do today",
			model.Intent{ProviderName: "City Hospital", TimeWindowDays: 1},
		},
		{
			"Blood donation turnout over the last 3 days against a target of 40",
			model.Intent{UseCase: "blood_donation", TimeWindowDays: 3, TargetCount: 40},
		},
		{
			"workplace_attendance proofs past 2 weeks",
			model.Intent{UseCase: "workplace_attendance", TimeWindowDays: 14},
		},
		{
			"Metro Office Attendance this month, target is 25",
			model.Intent{ProviderName: "Metro Office Attendance", TimeWindowDays: 30, TargetCount: 25},
		},
		{"", model.Intent{}},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got, err := e.Extract(context.Background(), tt.question)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeProvider struct {
	reply string
	err   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !req.JSONMode {
		return nil, errors.New("expected JSON mode")
	}
	return &llm.CompletionResponse{Text: f.reply}, nil
}

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func TestLLMExtractor(t *testing.T) {
	ok := NewLLMExtractor(llm.NewClientWithProvider(&fakeProvider{
		reply: `{"providerName":"City Hospital Blood Drive","useCase":null,"timeWindowDays":7,"targetCount":null}`,
	}, llm.Config{}))
	got, err := ok.Extract(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "City Hospital Blood Drive", got.ProviderName)
	assert.Equal(t, 7, got.TimeWindowDays)

	garbage := NewLLMExtractor(llm.NewClientWithProvider(&fakeProvider{reply: "no idea"}, llm.Config{}))
	_, err = garbage.Extract(context.Background(), "q")
	assert.ErrorIs(t, err, ErrUnparsable)

	failing := NewLLMExtractor(llm.NewClientWithProvider(&fakeProvider{err: errors.New("quota")}, llm.Config{}))
	_, err = failing.Extract(context.Background(), "q")
	assert.Error(t, err)

	disabled := NewLLMExtractor(nil)
	_, err = disabled.Extract(context.Background(), "q")
	assert.ErrorIs(t, err, llm.ErrNoProvider)
}

type countingExtractor struct {
	calls int
	out   model.Intent
	err   error
}

func (c *countingExtractor) Extract(ctx context.Context, question string) (model.Intent, error) {
	c.calls++
	return c.out, c.err
}

func TestCachedExtractor(t *testing.T) {
	inner := &countingExtractor{out: model.Intent{UseCase: "blood_donation", TimeWindowDays: 3}}
	e := NewCachedExtractor(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	first, err := e.Extract(ctx, "Blood donations last 3 days")
	require.NoError(t, err)
	second, err := e.Extract(ctx, "  blood DONATIONS last 3 days ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedExtractorSkipsFailures(t *testing.T) {
	inner := &countingExtractor{err: ErrUnparsable}
	e := NewCachedExtractor(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	_, err := e.Extract(ctx, "q")
	assert.Error(t, err)
	_, err = e.Extract(ctx, "q")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedExtractorNilCache(t *testing.T) {
	inner := &countingExtractor{}
	assert.Same(t, Extractor(inner), NewCachedExtractor(inner, nil, time.Minute))
}
