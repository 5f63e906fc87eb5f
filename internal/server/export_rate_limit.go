package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storekeep/internal/observability/logger"
	"go.uber.org/zap"
)

// ExportRateLimit throttles document downloads per client IP. A limiter
// failure lets the request through.
func (s *Server) ExportRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.exportLimiter == nil || !s.exportLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		clientKey := exportClientKey(c)

		result, err := s.exportLimiter.Allow(ctx, clientKey)
		if err != nil {
			logger.FromContext(ctx).Warn("export rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			denyExportRateLimit(c, clientKey, result.RetryAfter)
			return
		}

		c.Next()
	}
}

func denyExportRateLimit(c *gin.Context, clientKey string, retryAfter time.Duration) {
	log := logger.FromContext(c.Request.Context())
	log.Warn("export rate limit exceeded",
		zap.String("client", clientKey),
		zap.String("endpoint", normalizeRateLimitEndpoint(c)),
	)

	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	AbortWithError(c, ErrRateLimited)
}

func exportClientKey(c *gin.Context) string {
	ip := strings.TrimSpace(c.ClientIP())
	if ip == "" {
		return "unknown"
	}
	return ip
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
