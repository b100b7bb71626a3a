package model

// Route is the orchestrator's decision for a question
type Route string

const (
	RouteAnalytics Route = "analytics"
	RouteGeneric   Route = "generic"
)

// GenericAnswer is returned for every question that is not routed to analytics
const GenericAnswer = "This question is not recognized as a zk-loci analytics query. Please ask about verification stats, proofs, providers, or use cases."

// PlaceholderAnswer is returned when stats were computed but no narrative could be composed
const PlaceholderAnswer = "Verification stats were computed, but a written summary is not available right now. The attached stats contain the full breakdown."

// QueryRequest is the inbound question
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the outcome of handling one question.
// RawStats is nil on the generic route.
type QueryResponse struct {
	Answer   string         `json:"answer"`
	Route    Route          `json:"route"`
	RawStats *CampaignStats `json:"raw_stats"`
}
