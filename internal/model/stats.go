package model

import (
	"math"
	"time"
)

// StatsMode tells where a CampaignStats value came from
type StatsMode string

const (
	ModeObserved StatsMode = "observed" // computed from stored requests and proofs
	ModeFallback StatsMode = "fallback" // synthesized because the store was unreachable
)

// CampaignStats is the aggregation output for one resolved intent.
// Both the observed and the fallback path produce this exact shape.
type CampaignStats struct {
	Intent

	Mode             StatsMode        `json:"mode"`
	Requests         []RequestSummary `json:"requests"`
	TotalProofs      int              `json:"totalProofs"`
	SuccessfulProofs int              `json:"successfulProofs"`
	SuccessRate      float64          `json:"successRate"`
}

// RequestSummary is one scoped request enriched with its proof counts
type RequestSummary struct {
	RequestID             string                 `json:"requestId"`
	ProviderName          string                 `json:"providerName"`
	UseCase               string                 `json:"useCase"`
	Description           string                 `json:"description"`
	AttributeRequirements map[string]interface{} `json:"attributeRequirements,omitempty"`
	CreatedAt             time.Time              `json:"createdAt"`
	ExpiresAt             time.Time              `json:"expiresAt"`
	TotalProofs           int                    `json:"totalProofs"`
	SuccessfulProofs      int                    `json:"successfulProofs"`
	UniqueUserCount       int                    `json:"uniqueUserCount"`
}

// EmptyStats returns the valid zero result for an intent with no matching requests
func EmptyStats(intent Intent) CampaignStats {
	return CampaignStats{
		Intent:   intent,
		Mode:     ModeObserved,
		Requests: []RequestSummary{},
	}
}

// SuccessRate returns successful/total rounded to three decimals, or 0 when total is 0
func SuccessRate(successful, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	return math.Round(float64(successful)/float64(total)*1000) / 1000
}

// IsEmpty reports whether no request matched the scope
func (s CampaignStats) IsEmpty() bool {
	return len(s.Requests) == 0
}
