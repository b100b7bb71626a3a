package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntent_Resolve(t *testing.T) {
	defaults := IntentDefaults{TimeWindowDays: 7, TargetCount: 50}

	tests := []struct {
		name string
		in   Intent
		want Intent
	}{
		{
			name: "empty intent takes all defaults",
			in:   Intent{},
			want: Intent{TimeWindowDays: 7, TargetCount: 50},
		},
		{
			name: "negative values are replaced",
			in:   Intent{TimeWindowDays: -3, TargetCount: -1},
			want: Intent{TimeWindowDays: 7, TargetCount: 50},
		},
		{
			name: "explicit values are kept",
			in:   Intent{ProviderName: "City Hospital Blood Drive", TimeWindowDays: 1, TargetCount: 25},
			want: Intent{ProviderName: "City Hospital Blood Drive", TimeWindowDays: 1, TargetCount: 25},
		},
		{
			name: "overlong window is clamped",
			in:   Intent{TimeWindowDays: 200000, TargetCount: 10},
			want: Intent{TimeWindowDays: MaxTimeWindowDays, TargetCount: 10},
		},
		{
			name: "whitespace-only filters become absent",
			in:   Intent{ProviderName: "   ", UseCase: "\t"},
			want: Intent{TimeWindowDays: 7, TargetCount: 50},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Resolve(defaults))
		})
	}
}

func TestIntent_Resolve_ZeroDefaultsFallBackToPackageDefaults(t *testing.T) {
	got := Intent{}.Resolve(IntentDefaults{})
	assert.Equal(t, DefaultTimeWindowDays, got.TimeWindowDays)
	assert.Equal(t, DefaultTargetCount, got.TargetCount)
}

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 0.0, SuccessRate(0, 0))
	assert.Equal(t, 0.0, SuccessRate(5, 0))
	assert.Equal(t, 1.0, SuccessRate(3, 3))
	assert.Equal(t, 0.667, SuccessRate(2, 3))
	assert.Equal(t, 0.94, SuccessRate(47, 50))
	assert.Equal(t, 0.333, SuccessRate(1, 3))
}

func TestCampaignStats_JSONFlattensIntent(t *testing.T) {
	stats := EmptyStats(Intent{ProviderName: "City Hospital Blood Drive", TimeWindowDays: 7, TargetCount: 50})

	data, err := json.Marshal(stats)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "City Hospital Blood Drive", decoded["providerName"])
	assert.Equal(t, float64(7), decoded["timeWindowDays"])
	assert.Equal(t, "observed", decoded["mode"])
	assert.Equal(t, []interface{}{}, decoded["requests"])
	assert.Equal(t, float64(0), decoded["successRate"])
}

func TestRequestStatus_Valid(t *testing.T) {
	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusExpired.Valid())
	assert.True(t, StatusClosed.Valid())
	assert.False(t, RequestStatus("pending").Valid())
}
