package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/zkloci/internal/model"
)

// FallbackStats synthesizes a single-request result for intent while the
// store is unavailable. Provider and use case come from the intent when
// present, otherwise from cfg. The shape matches the observed path.
func FallbackStats(intent model.Intent, cfg model.FallbackConfig, now time.Time) model.CampaignStats {
	defaults := model.DefaultFallbackConfig()
	if cfg.ProviderName == "" {
		cfg.ProviderName = defaults.ProviderName
	}
	if cfg.UseCase == "" {
		cfg.UseCase = defaults.UseCase
	}
	if cfg.TotalProofs <= 0 {
		cfg.TotalProofs = defaults.TotalProofs
		cfg.SuccessfulProofs = defaults.SuccessfulProofs
	}
	if cfg.SuccessfulProofs < 0 || cfg.SuccessfulProofs > cfg.TotalProofs {
		cfg.SuccessfulProofs = cfg.TotalProofs
	}

	provider := intent.ProviderName
	if provider == "" {
		provider = cfg.ProviderName
	}
	useCase := intent.UseCase
	if useCase == "" {
		useCase = cfg.UseCase
	}

	attrs := map[string]interface{}{}
	if cfg.Locality != "" {
		attrs["locality"] = cfg.Locality
	}
	if cfg.BloodType != "" {
		attrs["bloodType"] = cfg.BloodType
	}

	days := intent.TimeWindowDays
	if days <= 0 {
		days = model.DefaultTimeWindowDays
	}
	now = now.UTC()

	entry := model.RequestSummary{
		RequestID:             uuid.NewSHA1(uuid.NameSpaceURL, []byte("zkloci:fallback:"+provider+"|"+useCase)).String(),
		ProviderName:          provider,
		UseCase:               useCase,
		Description:           "Illustrative campaign shown while the analytics store is unavailable",
		AttributeRequirements: attrs,
		CreatedAt:             Cutoff(now, days),
		ExpiresAt:             now.Add(24 * time.Hour),
		TotalProofs:           cfg.TotalProofs,
		SuccessfulProofs:      cfg.SuccessfulProofs,
		UniqueUserCount:       cfg.TotalProofs,
	}

	return model.CampaignStats{
		Intent:           intent,
		Mode:             model.ModeFallback,
		Requests:         []model.RequestSummary{entry},
		TotalProofs:      entry.TotalProofs,
		SuccessfulProofs: entry.SuccessfulProofs,
		SuccessRate:      model.SuccessRate(entry.SuccessfulProofs, entry.TotalProofs),
	}
}
