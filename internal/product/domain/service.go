package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	"github.com/smallbiznis/storekeep/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	// ListAll ignores pagination; exports use it.
	ListAll(ctx context.Context, req ListRequest) ([]Response, error)
	Delete(ctx context.Context, id string) error
	Recalculate(ctx context.Context, id string) (*RecalculateResponse, error)
}

// Repricer recomputes and stores one product's snapshot.
type Repricer interface {
	RecalculateOne(ctx context.Context, productID snowflake.ID) (bool, error)
}

type ListRequest struct {
	CategoryID    string
	Name          string
	MarginWarning *bool
	Priced        *bool
	SortBy        string
	OrderBy       string
	pagination.Pagination
}

type CreateRequest struct {
	Name           string         `json:"name"`
	SKU            *string        `json:"sku"`
	CategoryID     *string        `json:"categoryId"`
	ExwPriceYuan   float64        `json:"exwPriceYuan"`
	UnitsPerCarton int            `json:"unitsPerCarton"`
	CartonLengthCm float64        `json:"cartonLengthCm"`
	CartonWidthCm  float64        `json:"cartonWidthCm"`
	CartonHeightCm float64        `json:"cartonHeightCm"`
	Metadata       map[string]any `json:"metadata"`
}

// UpdateRequest is a partial edit. An empty CategoryID detaches the product.
type UpdateRequest struct {
	ID             string         `json:"-"`
	Name           *string        `json:"name,omitempty"`
	SKU            *string        `json:"sku,omitempty"`
	CategoryID     *string        `json:"categoryId,omitempty"`
	ExwPriceYuan   *float64       `json:"exwPriceYuan,omitempty"`
	UnitsPerCarton *int           `json:"unitsPerCarton,omitempty"`
	CartonLengthCm *float64       `json:"cartonLengthCm,omitempty"`
	CartonWidthCm  *float64       `json:"cartonWidthCm,omitempty"`
	CartonHeightCm *float64       `json:"cartonHeightCm,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type Response struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	SKU            *string        `json:"sku,omitempty"`
	CategoryID     *string        `json:"categoryId,omitempty"`
	ExwPriceYuan   float64        `json:"exwPriceYuan"`
	UnitsPerCarton int            `json:"unitsPerCarton"`
	CartonLengthCm float64        `json:"cartonLengthCm"`
	CartonWidthCm  float64        `json:"cartonWidthCm"`
	CartonHeightCm float64        `json:"cartonHeightCm"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	pricingdomain.PriceResult
	PricedAt  *time.Time `json:"pricedAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type ListResponse struct {
	Items    []Response          `json:"items"`
	PageInfo pagination.PageInfo `json:"pageInfo"`
}

type RecalculateResponse struct {
	Product      Response `json:"product"`
	Recalculated bool     `json:"recalculated"`
}
