package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/zkloci/internal/model"
)

// Demo provider names used by the fixtures
const (
	DemoBloodProvider  = "City Hospital Blood Drive"
	DemoOfficeProvider = "Metro Office Attendance"
	DemoBankProvider   = "Regional Blood Bank"
)

// stableID derives a UUID that is the same on every run for the same name
func stableID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("zkloci:"+name)).String()
}

type demoProof struct {
	user   string
	ok     bool
	minAgo int
}

// DemoFixtures returns a small, deterministic dataset relative to now:
// an active blood donation request, an active workplace attendance request,
// and an expired blood bank request. Cached stats reflect all proofs.
func DemoFixtures(now time.Time) ([]model.VerificationRequest, []model.ProofResult) {
	now = now.UTC()

	requests := []model.VerificationRequest{
		{
			RequestID:    stableID("request:city-hospital"),
			ProviderID:   "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb",
			ProviderName: DemoBloodProvider,
			Type:         "bloodGroup",
			UseCase:      "blood_donation",
			Status:       model.StatusActive,
			Description:  "O+ donors needed for emergency surgery",
			AttributeRequirements: map[string]interface{}{
				"requiredBloodGroup": 1,
			},
			CreatedAt: now.Add(-2 * time.Hour),
			ExpiresAt: now.Add(24 * time.Hour),
		},
		{
			RequestID:    stableID("request:metro-office"),
			ProviderID:   "0xCOMPANY123456",
			ProviderName: DemoOfficeProvider,
			Type:         "location",
			UseCase:      "workplace_attendance",
			Status:       model.StatusActive,
			Description:  "On-site presence verification for staff",
			AttributeRequirements: map[string]interface{}{
				"centerLat":   37.7749,
				"centerLon":   -122.4194,
				"radius":      500,
				"maxDuration": 3600,
			},
			CreatedAt: now.Add(-24 * time.Hour),
			ExpiresAt: now.Add(7 * 24 * time.Hour),
		},
		{
			RequestID:    stableID("request:regional-bank"),
			ProviderID:   "0xBANK987654",
			ProviderName: DemoBankProvider,
			Type:         "bloodGroup",
			UseCase:      "blood_donation",
			Status:       model.StatusExpired,
			Description:  "B+ donors for quarterly stock replenishment",
			AttributeRequirements: map[string]interface{}{
				"requiredBloodGroup": 3,
			},
			CreatedAt: now.Add(-3 * 24 * time.Hour),
			ExpiresAt: now.Add(-24 * time.Hour),
		},
	}

	plan := map[int][]demoProof{
		0: {
			{"0xUSER1", true, 10},
			{"0xUSER2", true, 25},
			{"0xUSER3", false, 40},
			{"0xUSER4", true, 70},
			{"0xUSER5", true, 100},
		},
		1: {
			{"0xEMP1", true, 60},
			{"0xEMP2", false, 300},
			{"0xEMP3", true, 900},
		},
		2: {
			{"0xUSER1", true, 2 * 24 * 60},
			{"0xUSER6", true, 2 * 24 * 60},
		},
	}

	var proofs []model.ProofResult
	for idx := range requests {
		req := &requests[idx]
		for n, p := range plan[idx] {
			proofs = append(proofs, model.ProofResult{
				ProofID:   stableID(fmt.Sprintf("proof:%s:%d", req.RequestID, n)),
				RequestID: req.RequestID,
				UserID:    p.user,
				Result:    p.ok,
				CreatedAt: now.Add(-time.Duration(p.minAgo) * time.Minute),
				Metadata: map[string]interface{}{
					"proofType": req.Type,
				},
			})
			req.Stats.TotalProofs++
			if p.ok {
				req.Stats.SuccessfulProofs++
			}
		}
	}

	return requests, proofs
}

// DemoProviders returns the provider names present in the fixtures
func DemoProviders() []string {
	return []string{DemoBloodProvider, DemoOfficeProvider, DemoBankProvider}
}

// DemoUseCases returns the use cases present in the fixtures
func DemoUseCases() []string {
	return []string{"blood_donation", "workplace_attendance"}
}
