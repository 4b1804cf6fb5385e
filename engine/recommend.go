package engine

import (
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/payables_backend/models"
	"github.com/shopspring/decimal"
)

// rejectCodes are the criticals that are not correctable by the vendor or AP
// clerk: payment must be refused outright. Every other critical (missing PO,
// overage, invalid PO amount) holds the invoice for correction instead.
var rejectCodes = map[models.ViolationCode]bool{
	models.ViolationVendorNotAuthorized: true,
	models.ViolationVendorSuspended:     true,
	models.ViolationVendorBlacklisted:   true,
	models.ViolationPONotActive:         true,
}

// BuildRecommendation maps risk, confidence and the violation sequence to the
// final payment action. Guards are evaluated in order and the first match
// wins. Output text is assembled only from the inputs, so identical inputs
// reproduce the recommendation byte for byte.
func (e *Engine) BuildRecommendation(inv *models.Invoice, match models.MatchResult, violations []models.Violation, risk models.RiskLevel, confidence decimal.Decimal) models.Recommendation {
	criticals, warnings, _ := countBySeverity(violations)

	action := models.ActionManualReview
	autoApprovable := false
	switch {
	case criticals > 0:
		action = models.ActionHold
		for _, v := range violations {
			if v.Severity == models.SeverityCritical && rejectCodes[v.Code] {
				action = models.ActionReject
				break
			}
		}
	case inv.TotalAmount.LessThanOrEqual(e.cfg.AutoApproveThreshold) && warnings == 0:
		action = models.ActionApprove
		autoApprovable = true
	case inv.TotalAmount.LessThanOrEqual(e.cfg.RequireManualReviewThreshold):
		action = models.ActionManualReview
	default:
		// High-value invoice past every band: never below HIGH risk.
		if risk == models.RiskLevelLow || risk == models.RiskLevelMedium {
			risk = models.RiskLevelHigh
		}
	}

	return models.Recommendation{
		Action:               action,
		ConfidenceScore:      confidence,
		RiskLevel:            risk,
		Reasoning:            buildReasoning(inv, match, violations, action, confidence),
		FlaggedIssues:        buildFlaggedIssues(violations),
		SuggestedActions:     e.buildSuggestedActions(inv, match, violations),
		NextSteps:            buildNextSteps(action),
		AutoApprovable:       autoApprovable,
		RequiresManualReview: action == models.ActionManualReview || action == models.ActionHold,
	}
}

// buildReasoning concatenates one templated sentence per violation, in
// violation order, then a summary clause citing match quality and confidence.
func buildReasoning(inv *models.Invoice, match models.MatchResult, violations []models.Violation, action models.ActionType, confidence decimal.Decimal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice %s from %s for %s %s: recommended action %s. ",
		inv.InvoiceNumber, inv.VendorName,
		fmtAmount(inv.TotalAmount, inv.Currency), inv.Currency, action)
	if len(violations) == 0 {
		b.WriteString("No rule violations found. ")
	}
	for _, v := range violations {
		b.WriteString(v.Message)
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "Purchase order match %s%% (%s); recommendation confidence %s.",
		match.MatchPercentage.Round(1), match.MatchBasis, confidence.StringFixed(2))
	return b.String()
}

func buildFlaggedIssues(violations []models.Violation) []string {
	issues := []string{}
	for _, v := range violations {
		if v.Severity == models.SeverityInfo {
			continue
		}
		issues = append(issues, fmt.Sprintf("%s: %s", v.Severity, v.Message))
	}
	return issues
}

func (e *Engine) buildSuggestedActions(inv *models.Invoice, match models.MatchResult, violations []models.Violation) []string {
	actions := []string{}
	if !match.Found() {
		actions = append(actions,
			"Create a purchase order for this vendor",
			"Verify the vendor is authorized")
	}
	if len(violations) > 0 {
		actions = append(actions,
			"Review and resolve the flagged violations",
			"Contact the vendor for clarification if needed")
	}
	if inv.TotalAmount.GreaterThan(e.cfg.RequireManualReviewThreshold) {
		actions = append(actions, "Obtain additional approval for this high-value invoice")
	}
	for _, v := range violations {
		if v.Code == models.ViolationTaxRateExceeded || v.Code == models.ViolationSubtotalTaxMismatch {
			actions = append(actions, "Verify tax calculations with the accounting team")
			break
		}
	}
	return actions
}

func buildNextSteps(action models.ActionType) []string {
	switch action {
	case models.ActionApprove:
		return []string{
			"Process payment according to payment terms",
			"Update the invoice status in the system",
		}
	case models.ActionReject:
		return []string{
			"Notify the vendor of the rejection",
			"Document the rejection reasons",
			"Return the invoice to the vendor for correction",
		}
	case models.ActionHold:
		return []string{
			"Investigate the missing or invalid purchase order",
			"Contact the vendor for a PO reference",
			"Create a purchase order if the vendor is authorized",
		}
	default:
		return []string{
			"Assign to the appropriate reviewer",
			"Gather additional documentation if needed",
		}
	}
}
