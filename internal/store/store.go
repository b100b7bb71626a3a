// Package store reads verification requests and proof results.
// Every reader is read-only and safe for concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/zkloci/internal/model"
)

// ErrUnavailable signals that the backing store cannot be reached.
// It is distinct from a query that matches nothing.
var ErrUnavailable = errors.New("store unavailable")

// Status is the reachability of a reader, fixed when the reader is opened
type Status int

const (
	StatusAvailable Status = iota
	StatusUnavailable
)

func (s Status) String() string {
	if s == StatusAvailable {
		return "available"
	}
	return "unavailable"
}

// Reader is the read-only view over requests and proofs
type Reader interface {
	// Status reports whether the reader was able to reach its store
	Status() Status

	// FindRequests returns the requests matching the filter, ordered by
	// creation time and then request ID
	FindRequests(ctx context.Context, filter RequestFilter) ([]model.VerificationRequest, error)

	// FindProofs returns the proofs matching the filter, ordered by creation time
	FindProofs(ctx context.Context, filter ProofFilter) ([]model.ProofResult, error)
}

// RequestFilter scopes request retrieval. Empty string fields match any value.
type RequestFilter struct {
	Status       model.RequestStatus
	CreatedSince time.Time
	ProviderName string
	UseCase      string
}

// Matches reports whether r passes the filter
func (f RequestFilter) Matches(r model.VerificationRequest) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.CreatedSince.IsZero() && r.CreatedAt.Before(f.CreatedSince) {
		return false
	}
	if f.ProviderName != "" && r.ProviderName != f.ProviderName {
		return false
	}
	if f.UseCase != "" && r.UseCase != f.UseCase {
		return false
	}
	return true
}

// ProofFilter scopes proof retrieval to a set of requests and a time window
type ProofFilter struct {
	RequestIDs   []string
	CreatedSince time.Time
}

// matcher returns a predicate equivalent to the filter, with the ID set precomputed
func (f ProofFilter) matcher() func(model.ProofResult) bool {
	ids := make(map[string]struct{}, len(f.RequestIDs))
	for _, id := range f.RequestIDs {
		ids[id] = struct{}{}
	}
	return func(p model.ProofResult) bool {
		if _, ok := ids[p.RequestID]; !ok {
			return false
		}
		return f.CreatedSince.IsZero() || !p.CreatedAt.Before(f.CreatedSince)
	}
}

// unavailableReader answers every query with ErrUnavailable
type unavailableReader struct {
	reason error
}

// NewUnavailable returns a reader for a store that could not be opened
func NewUnavailable(reason error) Reader {
	if reason == nil {
		reason = errors.New("not provisioned")
	}
	return &unavailableReader{reason: reason}
}

func (u *unavailableReader) Status() Status {
	return StatusUnavailable
}

func (u *unavailableReader) FindRequests(ctx context.Context, filter RequestFilter) ([]model.VerificationRequest, error) {
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, u.reason)
}

func (u *unavailableReader) FindProofs(ctx context.Context, filter ProofFilter) ([]model.ProofResult, error) {
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, u.reason)
}
