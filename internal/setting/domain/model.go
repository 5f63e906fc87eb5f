package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Global pricing coefficient keys.
const (
	KeyExchangeRate       = "exchange_rate"
	KeySourcingCommission = "sourcing_commission"
	KeyFreightPerCbm      = "freight_per_cbm"
	KeyInsurancePercent   = "insurance_percent"
	KeySwSurchargePercent = "sw_surcharge_percent"
	KeyOurMarkupPercent   = "our_markup_percent"
	KeyTargetStoreMargin  = "target_store_margin"
)

// Setting is a stored override. Value is kept exactly as the operator sent it.
type Setting struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Key       string       `gorm:"column:key;type:varchar(64);not null;uniqueIndex:ux_settings_key"`
	Value     string       `gorm:"type:text;not null"`
	Label     string       `gorm:"type:text;not null;default:''"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Setting) TableName() string { return "settings" }

// Definition is one row of the compiled-in default table.
type Definition struct {
	Key     string
	Label   string
	Default float64
}

var definitions = []Definition{
	{Key: KeyExchangeRate, Label: "Exchange rate (CNY→INR)", Default: 12.0},
	{Key: KeySourcingCommission, Label: "Sourcing commission %", Default: 5},
	{Key: KeyFreightPerCbm, Label: "Freight per CBM (INR)", Default: 8000},
	{Key: KeyInsurancePercent, Label: "Insurance %", Default: 0.5},
	{Key: KeySwSurchargePercent, Label: "Social welfare surcharge %", Default: 10},
	{Key: KeyOurMarkupPercent, Label: "Our markup %", Default: 25},
	{Key: KeyTargetStoreMargin, Label: "Target store margin %", Default: 50},
}

// Definitions returns the default table in display order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// LookupDefinition finds the default table entry for key.
func LookupDefinition(key string) (Definition, bool) {
	for _, d := range definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}
