package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ppiankov/zkloci/internal/model"
)

// Memory is an in-process reader over a fixed dataset
type Memory struct {
	mu       sync.RWMutex
	requests []model.VerificationRequest
	proofs   []model.ProofResult
}

// NewMemory creates a memory reader over copies of the given records
func NewMemory(requests []model.VerificationRequest, proofs []model.ProofResult) *Memory {
	m := &Memory{
		requests: append([]model.VerificationRequest(nil), requests...),
		proofs:   append([]model.ProofResult(nil), proofs...),
	}

	sort.SliceStable(m.requests, func(i, j int) bool {
		a, b := m.requests[i], m.requests[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.RequestID < b.RequestID
	})
	sort.SliceStable(m.proofs, func(i, j int) bool {
		return m.proofs[i].CreatedAt.Before(m.proofs[j].CreatedAt)
	})

	return m
}

// Status always reports available
func (m *Memory) Status() Status {
	return StatusAvailable
}

// FindRequests returns matching requests
func (m *Memory) FindRequests(ctx context.Context, filter RequestFilter) ([]model.VerificationRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.VerificationRequest, 0)
	for _, r := range m.requests {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindProofs returns matching proofs
func (m *Memory) FindProofs(ctx context.Context, filter ProofFilter) ([]model.ProofResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(filter.RequestIDs) == 0 {
		return []model.ProofResult{}, nil
	}

	match := filter.matcher()

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.ProofResult, 0)
	for _, p := range m.proofs {
		if match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Len returns the number of stored requests and proofs
func (m *Memory) Len() (requests int, proofs int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests), len(m.proofs)
}
