package seed

import (
	"testing"

	"github.com/smallbiznis/storekeep/internal/config"
	settingdomain "github.com/smallbiznis/storekeep/internal/setting/domain"
	"github.com/smallbiznis/storekeep/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDefaultSettings_Idempotent(t *testing.T) {
	db := dbtest.Open(t, &settingdomain.Setting{})

	inserted, err := EnsureDefaultSettings(db, config.PricingConfig{})
	require.NoError(t, err)
	assert.Equal(t, len(settingdomain.Definitions()), inserted)

	var rate settingdomain.Setting
	require.NoError(t, db.Where(&settingdomain.Setting{Key: settingdomain.KeyExchangeRate}).First(&rate).Error)
	assert.Equal(t, "12", rate.Value)
	assert.Equal(t, "Exchange rate (CNY→INR)", rate.Label)

	require.NoError(t, db.Model(&rate).Update("value", "11.5").Error)

	inserted, err = EnsureDefaultSettings(db, config.PricingConfig{})
	require.NoError(t, err)
	assert.Zero(t, inserted)

	require.NoError(t, db.Where(&settingdomain.Setting{Key: settingdomain.KeyExchangeRate}).First(&rate).Error)
	assert.Equal(t, "11.5", rate.Value)

	var count int64
	require.NoError(t, db.Model(&settingdomain.Setting{}).Count(&count).Error)
	assert.EqualValues(t, len(settingdomain.Definitions()), count)
}

func TestEnsureDefaultSettings_UsesConfiguredDefaults(t *testing.T) {
	db := dbtest.Open(t, &settingdomain.Setting{})

	_, err := EnsureDefaultSettings(db, config.PricingConfig{
		Defaults: map[string]float64{settingdomain.KeyFreightPerCbm: 9500},
	})
	require.NoError(t, err)

	var freight settingdomain.Setting
	require.NoError(t, db.Where(&settingdomain.Setting{Key: settingdomain.KeyFreightPerCbm}).First(&freight).Error)
	assert.Equal(t, "9500", freight.Value)
}
