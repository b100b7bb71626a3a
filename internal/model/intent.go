package model

import "strings"

// Deployment-wide intent defaults. A question that does not name a window
// or a target is answered for the last week against a target of 50 proofs.
const (
	DefaultTimeWindowDays = 7
	DefaultTargetCount    = 50

	// MaxTimeWindowDays bounds a window to a century; longer windows are
	// clamped to it.
	MaxTimeWindowDays = 36500
)

// Intent holds the normalized query parameters extracted from a question.
// Empty strings mean "match any value" for the corresponding filter.
type Intent struct {
	ProviderName   string `json:"providerName,omitempty"`
	UseCase        string `json:"useCase,omitempty"`
	TimeWindowDays int    `json:"timeWindowDays"`
	TargetCount    int    `json:"targetCount"`
}

// IntentDefaults are the values applied to absent or non-positive intent fields
type IntentDefaults struct {
	TimeWindowDays int
	TargetCount    int
}

// DefaultIntentDefaults returns the deployment defaults
func DefaultIntentDefaults() IntentDefaults {
	return IntentDefaults{
		TimeWindowDays: DefaultTimeWindowDays,
		TargetCount:    DefaultTargetCount,
	}
}

// Resolve returns a copy of the intent with whitespace trimmed and every
// absent or invalid field replaced by its default. It never fails.
func (i Intent) Resolve(d IntentDefaults) Intent {
	if d.TimeWindowDays <= 0 {
		d.TimeWindowDays = DefaultTimeWindowDays
	}
	if d.TargetCount <= 0 {
		d.TargetCount = DefaultTargetCount
	}

	out := Intent{
		ProviderName:   strings.TrimSpace(i.ProviderName),
		UseCase:        strings.TrimSpace(i.UseCase),
		TimeWindowDays: i.TimeWindowDays,
		TargetCount:    i.TargetCount,
	}
	if out.TimeWindowDays <= 0 {
		out.TimeWindowDays = d.TimeWindowDays
	}
	if out.TimeWindowDays > MaxTimeWindowDays {
		out.TimeWindowDays = MaxTimeWindowDays
	}
	if out.TargetCount <= 0 {
		out.TargetCount = d.TargetCount
	}
	return out
}

// HasProvider reports whether the intent scopes to a single provider
func (i Intent) HasProvider() bool {
	return strings.TrimSpace(i.ProviderName) != ""
}

// HasUseCase reports whether the intent scopes to a single use case
func (i Intent) HasUseCase() bool {
	return strings.TrimSpace(i.UseCase) != ""
}
