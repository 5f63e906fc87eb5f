package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service recomputes stored price snapshots.
type Service interface {
	RecalculateOne(ctx context.Context, productID snowflake.ID) (bool, error)
	RecalculateCategory(ctx context.Context, categoryID snowflake.ID) (int, error)
	RecalculateAll(ctx context.Context) (int, error)
	Preview(ctx context.Context, req PreviewRequest) (*PreviewResponse, error)
}

// PreviewRequest prices a hypothetical product without persisting anything.
// When CategoryID is set its stored rates win over the explicit percentages.
type PreviewRequest struct {
	CategoryID          string  `json:"categoryId"`
	ExwPriceYuan        float64 `json:"exwPriceYuan"`
	UnitsPerCarton      int     `json:"unitsPerCarton"`
	CartonLengthCm      float64 `json:"cartonLengthCm"`
	CartonWidthCm       float64 `json:"cartonWidthCm"`
	CartonHeightCm      float64 `json:"cartonHeightCm"`
	CategoryDutyPercent float64 `json:"categoryDutyPercent"`
	CategoryIgstPercent float64 `json:"categoryIgstPercent"`
}

type PreviewResponse struct {
	Inputs PriceInputs `json:"inputs"`
	Result PriceResult `json:"result"`
}
