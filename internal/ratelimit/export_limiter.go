package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storekeep/internal/config"
)

const keyExportClient = "storekeep:export:%s"

// ExportLimiter throttles document exports per client key.
type ExportLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewExportLimiter(client redis.UniversalClient, cfg config.Config) *ExportLimiter {
	if client == nil || cfg.ExportRatePerMinute <= 0 || cfg.ExportBurst <= 0 {
		return &ExportLimiter{}
	}
	return &ExportLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.ExportRatePerMinute / 60,
		burst:  cfg.ExportBurst,
	}
}

func (l *ExportLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *ExportLimiter) Allow(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyExportClient, strings.TrimSpace(clientKey))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
