package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/zkloci/internal/log"
	"github.com/ppiankov/zkloci/internal/model"
)

// Driver names accepted by Open
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverNone     = "none"
)

// Open builds the reader selected by cfg. A postgres store that cannot be
// reached is returned as an unavailable reader with a nil error so callers
// run in degraded mode. The returned func releases the reader.
func Open(ctx context.Context, cfg model.StoreConfig) (Reader, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory:
		requests, proofs := DemoFixtures(time.Now())
		return NewMemory(requests, proofs), noop, nil

	case DriverNone, "":
		return NewUnavailable(errors.New("store driver disabled")), noop, nil

	case DriverPostgres:
		connectCtx := ctx
		if cfg.QueryTimeout > 0 {
			var cancel context.CancelFunc
			connectCtx, cancel = context.WithTimeout(ctx, cfg.QueryTimeout)
			defer cancel()
		}
		pg, err := NewPostgres(connectCtx, cfg.DatabaseURL)
		if err != nil {
			log.Warn(ctx, "postgres unavailable, answers will use fallback stats", zap.Error(err))
			return NewUnavailable(err), noop, nil
		}
		return pg, pg.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}
