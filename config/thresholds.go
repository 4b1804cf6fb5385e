package config

import (
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/payables_backend/engine"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// thresholdEnv is the raw shape of the engine thresholds as read from the
// environment. Structural validation happens here via validator tags;
// semantic validation (ordering, ranges) happens in engine.Config.Validate.
type thresholdEnv struct {
	AutoApproveThreshold         string `validate:"required"`
	RequireManualReviewThreshold string `validate:"required"`
	MaxOveragePercentage         string `validate:"required"`
	FuzzyMatchFloor              string `validate:"required"`
	RoundingTolerance            string `validate:"required"`
	MaxTaxRate                   string `validate:"required"`
}

// LoadEngineConfig reads the reconciliation thresholds from env, falling back
// to the documented defaults for anything unset:
//
//	AUTO_APPROVE_THRESHOLD=1000.00
//	REQUIRE_MANUAL_REVIEW_THRESHOLD=5000.00
//	MAX_OVERAGE_PERCENTAGE=0.05
//	FUZZY_MATCH_FLOOR=0.6
//	ROUNDING_TOLERANCE=0.01
//	MAX_TAX_RATE=0.15
//
// Any non-numeric or negative value fails here, before an engine exists.
func LoadEngineConfig() (engine.Config, error) {
	defaults := engine.DefaultConfig()
	raw := thresholdEnv{
		AutoApproveThreshold:         envOrDefault("AUTO_APPROVE_THRESHOLD", defaults.AutoApproveThreshold.String()),
		RequireManualReviewThreshold: envOrDefault("REQUIRE_MANUAL_REVIEW_THRESHOLD", defaults.RequireManualReviewThreshold.String()),
		MaxOveragePercentage:         envOrDefault("MAX_OVERAGE_PERCENTAGE", defaults.MaxOveragePercentage.String()),
		FuzzyMatchFloor:              envOrDefault("FUZZY_MATCH_FLOOR", defaults.FuzzyMatchFloor.String()),
		RoundingTolerance:            envOrDefault("ROUNDING_TOLERANCE", defaults.RoundingTolerance.String()),
		MaxTaxRate:                   envOrDefault("MAX_TAX_RATE", defaults.MaxTaxRate.String()),
	}
	if err := validator.New().Struct(raw); err != nil {
		return engine.Config{}, fmt.Errorf("%w: %v", engine.ErrInvalidConfiguration, err)
	}

	cfg := engine.Config{}
	for _, field := range []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"AUTO_APPROVE_THRESHOLD", raw.AutoApproveThreshold, &cfg.AutoApproveThreshold},
		{"REQUIRE_MANUAL_REVIEW_THRESHOLD", raw.RequireManualReviewThreshold, &cfg.RequireManualReviewThreshold},
		{"MAX_OVERAGE_PERCENTAGE", raw.MaxOveragePercentage, &cfg.MaxOveragePercentage},
		{"FUZZY_MATCH_FLOOR", raw.FuzzyMatchFloor, &cfg.FuzzyMatchFloor},
		{"ROUNDING_TOLERANCE", raw.RoundingTolerance, &cfg.RoundingTolerance},
		{"MAX_TAX_RATE", raw.MaxTaxRate, &cfg.MaxTaxRate},
	} {
		parsed, err := decimal.NewFromString(field.value)
		if err != nil {
			return engine.Config{}, fmt.Errorf("%w: %s %q is not numeric", engine.ErrInvalidConfiguration, field.name, field.value)
		}
		*field.dst = parsed
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
