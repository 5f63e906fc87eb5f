package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/smallbiznis/storekeep/internal/pricing/domain"
)

// Category groups products that share customs treatment.
type Category struct {
	ID                 snowflake.ID `gorm:"primaryKey"`
	Name               string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_categories_name"`
	Code               string       `gorm:"type:varchar(255);not null;index:idx_categories_code"`
	CustomsDutyPercent float64      `gorm:"column:customs_duty_percent;type:numeric(7,3);not null;default:0"`
	IgstPercent        float64      `gorm:"column:igst_percent;type:numeric(7,3);not null;default:0"`
	HsCode             *string      `gorm:"column:hs_code;type:varchar(32)"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) Rates() pricingdomain.CategoryRates {
	return pricingdomain.CategoryRates{
		CustomsDutyPercent: c.CustomsDutyPercent,
		IgstPercent:        c.IgstPercent,
	}
}

func (c *Category) Validate() error {
	if c.Name == "" {
		return ErrInvalidName
	}
	if c.CustomsDutyPercent < 0 {
		return ErrInvalidCustomsDuty
	}
	if c.IgstPercent < 0 {
		return ErrInvalidIgst
	}
	return nil
}
