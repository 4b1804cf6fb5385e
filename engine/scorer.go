package engine

import (
	"bitbucket.org/mmdatafocus/payables_backend/models"
	"github.com/shopspring/decimal"
)

// Fixed confidence penalties per violation severity.
var (
	penaltyCritical = decimal.RequireFromString("0.4")
	penaltyWarning  = decimal.RequireFromString("0.15")
	penaltyInfo     = decimal.RequireFromString("0.02")
)

// ScoreRisk aggregates the violation sequence and match quality into a
// coarse risk level and a numeric confidence score. Nothing here is random;
// the same inputs always score the same.
func (e *Engine) ScoreRisk(violations []models.Violation, match models.MatchResult) (models.RiskLevel, decimal.Decimal) {
	criticals, warnings, infos := countBySeverity(violations)

	risk := models.RiskLevelLow
	switch {
	case criticals > 0:
		risk = models.RiskLevelCritical
	case warnings >= 2 || match.MatchPercentage.LessThan(e.cfg.FuzzyMatchFloor.Mul(decimalHundred)):
		risk = models.RiskLevelHigh
	case warnings == 1:
		risk = models.RiskLevelMedium
	}

	// Confidence starts at 1.0, loses a fixed penalty per violation, floors
	// at zero, and is then scaled by match quality: a weak match caps the
	// maximum confidence no matter how clean the invoice looks.
	confidence := decimalOne.
		Sub(penaltyCritical.Mul(decimal.NewFromInt(int64(criticals)))).
		Sub(penaltyWarning.Mul(decimal.NewFromInt(int64(warnings)))).
		Sub(penaltyInfo.Mul(decimal.NewFromInt(int64(infos))))
	if confidence.IsNegative() {
		confidence = decimal.Zero
	}
	confidence = confidence.Mul(match.MatchPercentage.Div(decimalHundred))

	return risk, clamp01(confidence).Round(4)
}

func countBySeverity(violations []models.Violation) (criticals, warnings, infos int) {
	for _, v := range violations {
		switch v.Severity {
		case models.SeverityCritical:
			criticals++
		case models.SeverityWarning:
			warnings++
		case models.SeverityInfo:
			infos++
		}
	}
	return
}
