package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	"github.com/smallbiznis/storekeep/pkg/db/option"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, opts ...option.QueryOption) ([]Product, error)
	// ListPriceableIDs returns ids of products with a positive EXW price,
	// limited to one category when categoryID is set.
	ListPriceableIDs(ctx context.Context, db *gorm.DB, categoryID *snowflake.ID) ([]snowflake.ID, error)
	// Update writes the editable inputs only; the snapshot is left untouched.
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	SaveSnapshot(ctx context.Context, db *gorm.DB, id snowflake.ID, result pricingdomain.PriceResult, pricedAt time.Time) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

type ListFilter struct {
	CategoryID    *snowflake.ID
	Name          string
	MarginWarning *bool
	Priced        *bool
}
