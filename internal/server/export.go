package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storekeep/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// ExportPriceList streams the catalog as an xlsx workbook. It accepts the
// same filters as the product listing.
func (s *Server) ExportPriceList(c *gin.Context) {
	req, ok := s.bindProductListQuery(c)
	if !ok {
		return
	}

	f, filename, err := s.exportSvc.PriceList(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", contentTypeXLSX)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		logger.FromContext(c.Request.Context()).Error("write price list", zap.Error(err))
	}
}

func (s *Server) ExportShelfLabels(c *gin.Context) {
	req, ok := s.bindProductListQuery(c)
	if !ok {
		return
	}

	doc, filename, err := s.exportSvc.ShelfLabels(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writePDF(c, doc, filename)
}

func (s *Server) ExportPriceSheet(c *gin.Context) {
	req, ok := s.bindProductListQuery(c)
	if !ok {
		return
	}

	doc, filename, err := s.exportSvc.PriceSheet(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writePDF(c, doc, filename)
}

func writePDF(c *gin.Context, doc io.Reader, filename string) {
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.DataFromReader(http.StatusOK, -1, contentTypePDF, doc, nil)
}
