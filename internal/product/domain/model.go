package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
	"gorm.io/datatypes"
)

// Product holds a supplier cost basis and the last computed price snapshot.
// The snapshot columns are only written by SaveSnapshot.
type Product struct {
	ID             snowflake.ID  `gorm:"primaryKey"`
	Name           string        `gorm:"type:varchar(255);not null"`
	SKU            *string       `gorm:"column:sku;type:varchar(64);uniqueIndex:ux_products_sku"`
	CategoryID     *snowflake.ID `gorm:"column:category_id;index:idx_products_category_id"`
	ExwPriceYuan   float64       `gorm:"column:exw_price_yuan;type:numeric(12,4);not null;default:0"`
	UnitsPerCarton int           `gorm:"column:units_per_carton;not null;default:0"`
	CartonLengthCm float64       `gorm:"column:carton_length_cm;type:numeric(10,2);not null;default:0"`
	CartonWidthCm  float64       `gorm:"column:carton_width_cm;type:numeric(10,2);not null;default:0"`
	CartonHeightCm float64       `gorm:"column:carton_height_cm;type:numeric(10,2);not null;default:0"`
	Metadata       datatypes.JSONMap

	Snapshot pricingdomain.PriceResult `gorm:"embedded"`
	PricedAt *time.Time                `gorm:"column:priced_at"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

func (p *Product) CostBasis() pricingdomain.CostBasis {
	return pricingdomain.CostBasis{
		ExwPriceYuan:   p.ExwPriceYuan,
		UnitsPerCarton: p.UnitsPerCarton,
		CartonLengthCm: p.CartonLengthCm,
		CartonWidthCm:  p.CartonWidthCm,
		CartonHeightCm: p.CartonHeightCm,
	}
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.ExwPriceYuan < 0 {
		return ErrInvalidExwPriceYuan
	}
	if p.UnitsPerCarton < 0 {
		return ErrInvalidUnitsPerCarton
	}
	if p.CartonLengthCm < 0 || p.CartonWidthCm < 0 || p.CartonHeightCm < 0 {
		return ErrInvalidCartonDimensions
	}
	return nil
}
