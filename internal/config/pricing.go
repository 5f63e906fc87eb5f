package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingConfig carries deploy-time overrides of the coefficient defaults.
// Keys follow the settings table (exchange_rate, freight_per_cbm, ...).
type PricingConfig struct {
	Defaults map[string]float64 `mapstructure:"defaults"`
}

// Default returns the override for key, if one is configured.
func (c PricingConfig) Default(key string) (float64, bool) {
	if c.Defaults == nil {
		return 0, false
	}
	v, ok := c.Defaults[strings.TrimSpace(key)]
	return v, ok
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

// NewStaticPricingConfigHolder wraps a fixed config, mainly for tests.
func NewStaticPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewPricingConfigHolder(cfg Config) (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	if cfg.PricingConfigDir != "" {
		v.AddConfigPath(cfg.PricingConfigDir)
	}
	v.AddConfigPath("/etc/storekeep") // System config
	v.AddConfigPath(".")              // Current directory (dev mode)

	v.SetEnvPrefix("STOREKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
	}

	var pc PricingConfig
	if err := v.UnmarshalKey("pricing", &pc); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(pc); err != nil {
		return nil, err
	}

	holder := NewStaticPricingConfigHolder(pc)
	if !found || !cfg.PricingConfigWatch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PricingConfigHolder) Get() PricingConfig {
	if h == nil {
		return PricingConfig{}
	}
	cfg, _ := h.current.Load().(PricingConfig)
	return cfg
}

func validatePricingConfig(cfg PricingConfig) error {
	for key, value := range cfg.Defaults {
		if strings.TrimSpace(key) == "" {
			return errors.New("pricing.defaults contains an empty key")
		}
		if value < 0 {
			return fmt.Errorf("pricing.defaults.%s cannot be negative", key)
		}
	}
	if rate, ok := cfg.Defaults["exchange_rate"]; ok && rate <= 0 {
		return errors.New("pricing.defaults.exchange_rate must be positive")
	}
	return nil
}
