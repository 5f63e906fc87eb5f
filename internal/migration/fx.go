package migration

import (
	"github.com/smallbiznis/storekeep/internal/config"
	"github.com/smallbiznis/storekeep/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, pricing *config.PricingConfigHolder, log *zap.Logger) error {
		if err := Run(conn); err != nil {
			return err
		}

		if !cfg.SeedDefaultSettings {
			return nil
		}
		inserted, err := seed.EnsureDefaultSettings(conn, pricing.Get())
		if err != nil {
			return err
		}
		log.Info("database ready",
			zap.String("dialect", conn.Dialector.Name()),
			zap.Int("seeded_settings", inserted),
		)
		return nil
	}),
)
