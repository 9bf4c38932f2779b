package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "PRICING",
		SkipFlags: true,
		SkipFiles: true,
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(testLoader())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "0.15", cfg.Pricing.TaxRate)
	assert.True(t, cfg.Pricing.RejectNegative)
	assert.Equal(t, 1000, cfg.Pricing.MaxBatchSize)
	assert.Equal(t, int64(1<<20), cfg.Pricing.MaxBodyBytes)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)

	rate, err := cfg.Pricing.Rate()
	require.NoError(t, err)
	assert.Equal(t, "0.15", rate.String())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("PRICING_PRICING_TAX_RATE", "0.2")
	t.Setenv("PRICING_PRICING_REJECT_NEGATIVE", "false")
	t.Setenv("PORT", "9090")

	cfg, err := loadConfig(testLoader())
	require.NoError(t, err)

	assert.Equal(t, "0.2", cfg.Pricing.TaxRate)
	assert.False(t, cfg.Pricing.RejectNegative)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
}

func TestLoadConfig_InvalidTaxRate(t *testing.T) {
	for _, rate := range []string{"abc", "-0.1"} {
		t.Run(rate, func(t *testing.T) {
			t.Setenv("PRICING_PRICING_TAX_RATE", rate)

			_, err := loadConfig(testLoader())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "tax rate")
		})
	}
}
