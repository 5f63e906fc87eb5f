package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storekeep/internal/observability/logger"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	"go.uber.org/zap"
)

// CalculatePrice prices a hypothetical product with the current settings.
// Nothing is stored.
func (s *Server) CalculatePrice(c *gin.Context) {
	var req pricingdomain.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.pricingSvc.Preview(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RecalculateAll re-prices the whole catalog. A run already in progress
// answers 409.
func (s *Server) RecalculateAll(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := s.pricingSvc.RecalculateAll(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("recalculate all failed", zap.Int("recalculated", count), zap.Error(err))
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recalculated prices for all products",
		"count":   count,
	})
}
