package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	productdomain "github.com/smallbiznis/storekeep/internal/product/domain"
	"github.com/smallbiznis/storekeep/pkg/db/pagination"
)

func (s *Server) CreateProduct(c *gin.Context) {
	var req productdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

type productListQuery struct {
	CategoryID    string `form:"category_id"`
	Name          string `form:"name"`
	MarginWarning string `form:"margin_warning"`
	Priced        string `form:"priced"`
	SortBy        string `form:"sort_by"`
	OrderBy       string `form:"order_by"`
	pagination.Pagination
}

func (s *Server) bindProductListQuery(c *gin.Context) (productdomain.ListRequest, bool) {
	var query productListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return productdomain.ListRequest{}, false
	}

	marginWarning, err := parseOptionalBool(query.MarginWarning)
	if err != nil {
		AbortWithError(c, newValidationError("margin_warning", "invalid_margin_warning", "invalid margin_warning"))
		return productdomain.ListRequest{}, false
	}
	priced, err := parseOptionalBool(query.Priced)
	if err != nil {
		AbortWithError(c, newValidationError("priced", "invalid_priced", "invalid priced"))
		return productdomain.ListRequest{}, false
	}

	return productdomain.ListRequest{
		CategoryID:    strings.TrimSpace(query.CategoryID),
		Name:          strings.TrimSpace(query.Name),
		MarginWarning: marginWarning,
		Priced:        priced,
		SortBy:        strings.TrimSpace(query.SortBy),
		OrderBy:       strings.TrimSpace(query.OrderBy),
		Pagination:    query.Pagination,
	}, true
}

func (s *Server) ListProducts(c *gin.Context) {
	req, ok := s.bindProductListQuery(c)
	if !ok {
		return
	}

	resp, err := s.productSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Items, "page_info": resp.PageInfo})
}

func (s *Server) GetProductByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.productSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	var req productdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.productSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteProduct(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.productSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) RecalculateProduct(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.productSvc.Recalculate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Product, "recalculated": resp.Recalculated})
}
