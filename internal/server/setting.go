package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	settingdomain "github.com/smallbiznis/storekeep/internal/setting/domain"
)

func (s *Server) ListSettings(c *gin.Context) {
	resp, err := s.settingSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// UpsertSetting stores one coefficient. It never re-prices products.
func (s *Server) UpsertSetting(c *gin.Context) {
	var req settingdomain.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isSettingValidationError(err) {
			AbortWithError(c, err)
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settingSvc.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
