package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storekeep/internal/config"
	settingdomain "github.com/smallbiznis/storekeep/internal/setting/domain"
	"gorm.io/gorm"
)

// EnsureDefaultSettings inserts a row for every coefficient that has none.
// Values come from pricing.yml when it sets the key, else the compiled
// default. Existing rows are never touched. It returns the number of rows
// inserted.
func EnsureDefaultSettings(db *gorm.DB, pricing config.PricingConfig) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return 0, err
	}

	inserted := 0
	ctx := context.Background()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted = 0
		for _, def := range settingdomain.Definitions() {
			created, err := ensureSettingTx(ctx, tx, node, def, pricing)
			if err != nil {
				return err
			}
			if created {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func ensureSettingTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, def settingdomain.Definition, pricing config.PricingConfig) (bool, error) {
	var existing settingdomain.Setting
	err := tx.WithContext(ctx).Where(&settingdomain.Setting{Key: def.Key}).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	value := def.Default
	if override, ok := pricing.Default(def.Key); ok {
		value = override
	}

	now := time.Now().UTC()
	setting := settingdomain.Setting{
		ID:        node.Generate(),
		Key:       def.Key,
		Value:     decimal.NewFromFloat(value).String(),
		Label:     def.Label,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&setting).Error; err != nil {
		return false, err
	}
	return true, nil
}
