package services

import (
	"encoding/json"
	"os"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"poinup/models"
)

// ConversionRule maps a provider's raw reported value to platform points:
// 0 below MinimumValue, otherwise floor(raw * Multiplier) clamped to
// MaximumCredit.
type ConversionRule struct {
	MinimumValue  float64         `json:"minimum_value"`
	Multiplier    decimal.Decimal `json:"multiplier"`
	MaximumCredit int64           `json:"maximum_credit"`
}

const singleEventCap = 500

var defaultRules = map[string]ConversionRule{
	// 1 point per full minute of playtime
	models.ProviderAdjoe: {
		MinimumValue:  60,
		Multiplier:    decimal.NewFromInt(1).Div(decimal.NewFromInt(60)),
		MaximumCredit: singleEventCap,
	},
	// 1 point per 10 coins
	models.ProviderQureka: {
		MinimumValue:  10,
		Multiplier:    decimal.NewFromInt(1).Div(decimal.NewFromInt(10)),
		MaximumCredit: singleEventCap,
	},
	// flat 1:1 offerwall currency
	models.ProviderTapjoy: {
		MinimumValue:  1,
		Multiplier:    decimal.NewFromInt(1),
		MaximumCredit: 10000,
	},
}

var conversionRules = func() map[string]ConversionRule {
	rules := make(map[string]ConversionRule, len(defaultRules))
	for p, r := range defaultRules {
		rules[p] = r
	}
	return rules
}()

// LoadConversionOverrides replaces per-provider rules from the
// CONVERSION_RULES_JSON env var, e.g.
// {"qureka":{"minimum_value":20,"multiplier":"0.05","maximum_credit":250}}.
// Called once at startup, before the server accepts callbacks.
func LoadConversionOverrides() {
	raw := os.Getenv("CONVERSION_RULES_JSON")
	if raw == "" {
		return
	}

	var overrides map[string]ConversionRule
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		log.WithError(err).Warn("invalid CONVERSION_RULES_JSON, keeping default rules")
		return
	}

	for provider, rule := range overrides {
		conversionRules[provider] = rule
		log.WithField("provider", provider).Info("conversion rule overridden")
	}
}

// ConvertToPoints converts a raw provider value using the configured rule
// for that provider. Unknown providers earn nothing.
func ConvertToPoints(provider string, rawValue float64) int64 {
	rule, ok := conversionRules[provider]
	if !ok {
		return 0
	}
	return ConvertWithRule(rawValue, rule)
}

// ConvertWithRule is the pure conversion: no I/O, deterministic, so it can
// be audited independently of the crediting path. Sub-threshold values earn
// zero, they are not errors.
func ConvertWithRule(rawValue float64, rule ConversionRule) int64 {
	if rawValue < rule.MinimumValue {
		return 0
	}

	points := decimal.NewFromFloat(rawValue).Mul(rule.Multiplier).Floor().IntPart()
	if points < 0 {
		return 0
	}
	if rule.MaximumCredit > 0 && points > rule.MaximumCredit {
		points = rule.MaximumCredit
	}
	return points
}
