package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*UpdateResponse, error)
}

// Recalculator re-prices every product of a category. Category updates call
// it when a tax rate changes.
type Recalculator interface {
	RecalculateCategory(ctx context.Context, categoryID snowflake.ID) (int, error)
}

type ListRequest struct {
	Name    string
	SortBy  string
	OrderBy string
}

type CreateRequest struct {
	Name               string  `json:"name"`
	CustomsDutyPercent float64 `json:"customsDutyPercent"`
	IgstPercent        float64 `json:"igstPercent"`
	HsCode             *string `json:"hsCode"`
}

type UpdateRequest struct {
	ID                 string   `json:"-"`
	Name               *string  `json:"name,omitempty"`
	CustomsDutyPercent *float64 `json:"customsDutyPercent,omitempty"`
	IgstPercent        *float64 `json:"igstPercent,omitempty"`
	HsCode             *string  `json:"hsCode,omitempty"`
}

type Response struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Code               string    `json:"code"`
	CustomsDutyPercent float64   `json:"customsDutyPercent"`
	IgstPercent        float64   `json:"igstPercent"`
	HsCode             *string   `json:"hsCode,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// UpdateResponse carries RecalculatedProducts only when a tax rate changed.
type UpdateResponse struct {
	Response
	RecalculatedProducts *int `json:"recalculatedProducts,omitempty"`
}
