package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the static thresholds the engine honors. Values are fixed for
// the lifetime of an Engine; there is no adaptive behavior.
type Config struct {
	// AutoApproveThreshold is the invoice total at or below which a clean
	// invoice may bypass manual review.
	AutoApproveThreshold decimal.Decimal `json:"auto_approve_threshold"`
	// RequireManualReviewThreshold marks the band above which totals always
	// escalate past plain manual review.
	RequireManualReviewThreshold decimal.Decimal `json:"require_manual_review_threshold"`
	// MaxOveragePercentage is a fraction (0.05 = 5%) of the PO's authorized
	// total that an invoice may exceed it by before violating.
	MaxOveragePercentage decimal.Decimal `json:"max_overage_percentage"`
	// FuzzyMatchFloor is the minimum combined similarity score for a fuzzy
	// PO match to count.
	FuzzyMatchFloor decimal.Decimal `json:"fuzzy_match_floor"`
	// RoundingTolerance is the permitted slack in arithmetic consistency
	// checks, normally one minor unit of the invoice currency.
	RoundingTolerance decimal.Decimal `json:"rounding_tolerance"`
	// MaxTaxRate is the highest tax/subtotal ratio considered plausible.
	MaxTaxRate decimal.Decimal `json:"max_tax_rate"`
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		AutoApproveThreshold:         decimal.NewFromInt(1000),
		RequireManualReviewThreshold: decimal.NewFromInt(5000),
		MaxOveragePercentage:         decimal.RequireFromString("0.05"),
		FuzzyMatchFloor:              decimal.RequireFromString("0.6"),
		RoundingTolerance:            decimal.RequireFromString("0.01"),
		MaxTaxRate:                   decimal.RequireFromString("0.15"),
	}
}

// Validate rejects non-sensical thresholds before any run executes.
func (c Config) Validate() error {
	if c.AutoApproveThreshold.IsNegative() {
		return fmt.Errorf("%w: auto-approve threshold %s is negative", ErrInvalidConfiguration, c.AutoApproveThreshold)
	}
	if c.RequireManualReviewThreshold.IsNegative() {
		return fmt.Errorf("%w: manual-review threshold %s is negative", ErrInvalidConfiguration, c.RequireManualReviewThreshold)
	}
	if c.RequireManualReviewThreshold.LessThan(c.AutoApproveThreshold) {
		return fmt.Errorf("%w: manual-review threshold %s is below auto-approve threshold %s",
			ErrInvalidConfiguration, c.RequireManualReviewThreshold, c.AutoApproveThreshold)
	}
	if c.MaxOveragePercentage.IsNegative() {
		return fmt.Errorf("%w: max overage percentage %s is negative", ErrInvalidConfiguration, c.MaxOveragePercentage)
	}
	if c.FuzzyMatchFloor.IsNegative() || c.FuzzyMatchFloor.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: fuzzy match floor %s is outside [0,1]", ErrInvalidConfiguration, c.FuzzyMatchFloor)
	}
	if c.RoundingTolerance.IsNegative() {
		return fmt.Errorf("%w: rounding tolerance %s is negative", ErrInvalidConfiguration, c.RoundingTolerance)
	}
	if c.MaxTaxRate.IsNegative() {
		return fmt.Errorf("%w: max tax rate %s is negative", ErrInvalidConfiguration, c.MaxTaxRate)
	}
	return nil
}
