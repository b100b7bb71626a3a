package worker

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultScope is used when a caller passes an empty scope
const DefaultScope = "default"

// Limiter implements per-scope rate limiting. A scope is usually the
// name of the upstream that the work ends up calling, such as an LLM
// provider, so unrelated upstreams do not share a budget.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until the scope has a token or ctx is done
func (l *Limiter) Wait(ctx context.Context, scope string) error {
	return l.getLimiter(scope).Wait(ctx)
}

// Allow checks if a request is allowed without waiting
func (l *Limiter) Allow(scope string) bool {
	return l.getLimiter(scope).Allow()
}

// getLimiter returns the rate limiter for a scope
func (l *Limiter) getLimiter(scope string) *rate.Limiter {
	scope = normalizeScope(scope)

	l.mu.RLock()
	limiter, exists := l.limiters[scope]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[scope]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[scope] = limiter

	return limiter
}

// SetScopeRate sets a custom rate limit for a specific scope
func (l *Limiter) SetScopeRate(scope string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[normalizeScope(scope)] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func normalizeScope(scope string) string {
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		return DefaultScope
	}
	return scope
}

// WaitWithDelay waits for rate limit and adds an additional delay
func (l *Limiter) WaitWithDelay(ctx context.Context, scope string, additionalDelay time.Duration) error {
	if err := l.Wait(ctx, scope); err != nil {
		return err
	}

	if additionalDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(additionalDelay):
		}
	}

	return nil
}
