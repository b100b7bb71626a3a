package model

import "time"

// RequestStatus is the lifecycle state of a verification request.
// Transitions happen outside this system; we only read it.
type RequestStatus string

const (
	StatusActive  RequestStatus = "active"
	StatusExpired RequestStatus = "expired"
	StatusClosed  RequestStatus = "closed"
)

// Valid reports whether s is one of the known statuses
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusClosed:
		return true
	}
	return false
}

// VerificationRequest is a provider's standing ask for attribute proofs.
// RequestID is globally unique and is the only join key to proofs.
type VerificationRequest struct {
	RequestID             string                 `json:"requestId"`
	ProviderID            string                 `json:"providerId,omitempty"`
	ProviderName          string                 `json:"providerName"`
	Type                  string                 `json:"type,omitempty"`
	UseCase               string                 `json:"useCase"`
	Status                RequestStatus          `json:"status"`
	Description           string                 `json:"description"`
	AttributeRequirements map[string]interface{} `json:"attributeRequirements,omitempty"`
	CreatedAt             time.Time              `json:"createdAt"`
	ExpiresAt             time.Time              `json:"expiresAt"`
	Stats                 RequestStats           `json:"stats"`
}

// RequestStats is the cached counter snapshot stored alongside a request.
// It is informational; aggregation always recounts proofs.
type RequestStats struct {
	TotalProofs      int `json:"totalProofs"`
	SuccessfulProofs int `json:"successfulProofs"`
}

// ProofResult is one user's submitted proof against a request.
// Immutable once created.
type ProofResult struct {
	ProofID   string                 `json:"proofId"`
	RequestID string                 `json:"requestId"`
	UserID    string                 `json:"userId"`
	Result    bool                   `json:"result"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
