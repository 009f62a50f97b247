package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"poinup/models"
)

func TestConvertToPoints_DefaultRules(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		rawValue float64
		want     int64
	}{
		{"adjoe below minimum playtime", models.ProviderAdjoe, 59, 0},
		{"adjoe exactly one minute", models.ProviderAdjoe, 60, 1},
		{"adjoe ten minutes", models.ProviderAdjoe, 600, 10},
		{"adjoe partial minute floors", models.ProviderAdjoe, 119, 1},
		{"adjoe capped at single event maximum", models.ProviderAdjoe, 90000, 500},
		{"qureka below minimum coins", models.ProviderQureka, 9, 0},
		{"qureka coins convert at one per ten", models.ProviderQureka, 250, 25},
		{"qureka capped, not 1000", models.ProviderQureka, 10000, 500},
		{"tapjoy flat one to one", models.ProviderTapjoy, 42, 42},
		{"tapjoy below minimum", models.ProviderTapjoy, 0.5, 0},
		{"tapjoy capped", models.ProviderTapjoy, 20000, 10000},
		{"unknown provider earns nothing", "mystery", 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertToPoints(tt.provider, tt.rawValue))
		})
	}
}

func TestConvertWithRule(t *testing.T) {
	rule := ConversionRule{
		MinimumValue:  10,
		Multiplier:    decimal.RequireFromString("0.5"),
		MaximumCredit: 20,
	}

	assert.Equal(t, int64(0), ConvertWithRule(9.99, rule))
	assert.Equal(t, int64(5), ConvertWithRule(10, rule))
	assert.Equal(t, int64(5), ConvertWithRule(11, rule), "fractional points floor")
	assert.Equal(t, int64(20), ConvertWithRule(1000, rule), "clamped to maximum credit")

	uncapped := ConversionRule{MinimumValue: 0, Multiplier: decimal.NewFromInt(2)}
	assert.Equal(t, int64(2000), ConvertWithRule(1000, uncapped), "zero maximum means no cap")
}

func TestLoadConversionOverrides(t *testing.T) {
	t.Cleanup(func() {
		conversionRules[models.ProviderQureka] = defaultRules[models.ProviderQureka]
	})

	t.Setenv("CONVERSION_RULES_JSON",
		`{"qureka":{"minimum_value":20,"multiplier":"0.05","maximum_credit":250}}`)
	LoadConversionOverrides()

	assert.Equal(t, int64(0), ConvertToPoints(models.ProviderQureka, 19))
	assert.Equal(t, int64(1), ConvertToPoints(models.ProviderQureka, 20))
	assert.Equal(t, int64(250), ConvertToPoints(models.ProviderQureka, 10000))

	// other providers keep their defaults
	assert.Equal(t, int64(10), ConvertToPoints(models.ProviderAdjoe, 600))
}

func TestLoadConversionOverrides_InvalidJSON(t *testing.T) {
	t.Setenv("CONVERSION_RULES_JSON", `{notjson`)
	LoadConversionOverrides()

	assert.Equal(t, int64(10), ConvertToPoints(models.ProviderAdjoe, 600))
}
