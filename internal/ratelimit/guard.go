package ratelimit

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storekeep/internal/config"
	"go.uber.org/zap"
)

const keyRecalculationLock = "storekeep:pricing:recalculate_all"

var ErrRecalculationHeld = errors.New("recalculation already running")

// RecalculationGuard keeps catalog-wide recalculations from overlapping
// across instances. Without redis every Acquire succeeds.
type RecalculationGuard struct {
	locker *Locker
	ttl    time.Duration
	log    *zap.Logger
}

func NewRecalculationGuard(client redis.UniversalClient, cfg config.Config, log *zap.Logger) *RecalculationGuard {
	ttl := cfg.RecalcLockTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RecalculationGuard{
		locker: NewLocker(client),
		ttl:    ttl,
		log:    log.Named("ratelimit.guard"),
	}
}

func (g *RecalculationGuard) Enabled() bool {
	return g != nil && g.locker != nil
}

// Acquire takes the lock. The returned release func is never nil and is
// safe to call once the work is done. ErrRecalculationHeld means another
// run owns the lock.
func (g *RecalculationGuard) Acquire(ctx context.Context) (func(context.Context), error) {
	noop := func(context.Context) {}
	if !g.Enabled() {
		return noop, nil
	}

	token, ok, err := g.locker.TryLock(ctx, keyRecalculationLock, g.ttl)
	if err != nil {
		return noop, err
	}
	if !ok {
		return noop, ErrRecalculationHeld
	}

	return func(ctx context.Context) {
		if err := g.locker.Release(ctx, keyRecalculationLock, token); err != nil {
			g.log.Warn("release recalculation lock", zap.Error(err))
		}
	}, nil
}
