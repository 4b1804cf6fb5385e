package engine

import (
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/payables_backend/models"
	"github.com/shopspring/decimal"
)

// priceTolerancePercent is the per-line unit price slack against the matched
// PO, as a fraction of the PO price.
var priceTolerancePercent = decimal.RequireFromString("0.05")

var decimalTwo = decimal.NewFromInt(2)

// ruleInput is everything a rule may look at. Rules never mutate it.
type ruleInput struct {
	invoice *models.Invoice
	match   models.MatchResult
	vendor  *models.Vendor
	asOf    time.Time
	cfg     Config
}

// ruleDescriptor tags one business rule. Rules are plain functions over the
// input, evaluated uniformly in table order; the order is fixed because the
// violation sequence drives reasoning text and audit display.
type ruleDescriptor struct {
	code  models.ViolationCode
	check func(ruleInput) []models.Violation
}

var ruleTable = []ruleDescriptor{
	{models.ViolationPONotFound, checkPONotFound},
	{models.ViolationPONotActive, checkPONotActive},
	{models.ViolationAmountOverage, checkAmountOverage},
	{models.ViolationVendorNotAuthorized, checkVendorAuthorization},
	{models.ViolationVendorLimitExceeded, checkVendorInvoiceLimit},
	{models.ViolationLineItemTotalMismatch, checkLineItemTotals},
	{models.ViolationLineItemNotInPO, checkLineItemsAgainstPO},
	{models.ViolationSubtotalTaxMismatch, checkSubtotalTaxTotal},
	{models.ViolationTaxRateExceeded, checkTaxRate},
	{models.ViolationFutureInvoiceDate, checkFutureInvoiceDate},
	{models.ViolationThresholdBand, checkThresholdBand},
}

// EvaluateRules runs every rule in fixed order and returns the ordered
// violation sequence. All rules always run; nothing short-circuits.
func (e *Engine) EvaluateRules(inv *models.Invoice, match models.MatchResult, vendor *models.Vendor, asOf time.Time) []models.Violation {
	in := ruleInput{invoice: inv, match: match, vendor: vendor, asOf: asOf, cfg: e.cfg}
	violations := []models.Violation{}
	for _, rule := range ruleTable {
		violations = append(violations, rule.check(in)...)
	}
	return violations
}

func checkPONotFound(in ruleInput) []models.Violation {
	if in.match.MatchBasis != models.MatchBasisNone {
		return nil
	}
	msg := fmt.Sprintf("No purchase order found for invoice %s", in.invoice.InvoiceNumber)
	if in.invoice.PoReference != "" {
		msg = fmt.Sprintf("%s (reference %q)", msg, in.invoice.PoReference)
	}
	return []models.Violation{{Code: models.ViolationPONotFound, Severity: models.SeverityCritical, Message: msg + "."}}
}

func checkPONotActive(in ruleInput) []models.Violation {
	po := in.match.MatchedPo
	if po == nil || po.Status == models.POStatusActive {
		return nil
	}
	return []models.Violation{{
		Code:     models.ViolationPONotActive,
		Severity: models.SeverityCritical,
		Message:  fmt.Sprintf("Purchase order %s is %s and cannot authorize payment.", po.PoNumber, po.Status),
	}}
}

// checkAmountOverage compares the invoice total to the authorized total.
// A non-positive authorized amount is itself a critical violation; the
// percentage is never computed against it, so no division can fail.
func checkAmountOverage(in ruleInput) []models.Violation {
	po := in.match.MatchedPo
	if po == nil {
		return nil
	}
	if !po.TotalAuthorized.IsPositive() {
		return []models.Violation{{
			Code:     models.ViolationInvalidPOAmount,
			Severity: models.SeverityCritical,
			Message: fmt.Sprintf("Purchase order %s has invalid authorized amount %s.",
				po.PoNumber, fmtAmount(po.TotalAuthorized, in.invoice.Currency)),
		}}
	}
	overage := in.invoice.TotalAmount.Sub(po.TotalAuthorized)
	if !overage.IsPositive() {
		return nil
	}
	fraction := overage.Div(po.TotalAuthorized)
	if fraction.LessThanOrEqual(in.cfg.MaxOveragePercentage) {
		return nil
	}
	// Escalates to critical once the overage reaches twice the tolerance.
	severity := models.SeverityWarning
	if fraction.GreaterThanOrEqual(in.cfg.MaxOveragePercentage.Mul(decimalTwo)) {
		severity = models.SeverityCritical
	}
	return []models.Violation{{
		Code:     models.ViolationAmountOverage,
		Severity: severity,
		Message: fmt.Sprintf("Invoice total %s exceeds purchase order %s authorization %s by %s (%s%%, allowed %s%%).",
			fmtAmount(in.invoice.TotalAmount, in.invoice.Currency),
			po.PoNumber,
			fmtAmount(po.TotalAuthorized, in.invoice.Currency),
			fmtAmount(overage, in.invoice.Currency),
			fraction.Mul(decimalHundred).Round(1),
			in.cfg.MaxOveragePercentage.Mul(decimalHundred).Round(1)),
	}}
}

func checkVendorAuthorization(in ruleInput) []models.Violation {
	v := in.vendor
	if v == nil {
		return []models.Violation{{
			Code:     models.ViolationVendorRecordMissing,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("No vendor record found for %q; authorization could not be verified.", in.invoice.VendorName),
		}}
	}
	switch v.Status {
	case models.VendorStatusBlacklisted:
		return []models.Violation{{
			Code:     models.ViolationVendorBlacklisted,
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("Vendor %s is blacklisted.", v.Name),
		}}
	case models.VendorStatusSuspended:
		return []models.Violation{{
			Code:     models.ViolationVendorSuspended,
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("Vendor %s is suspended.", v.Name),
		}}
	}
	if !v.IsAuthorized() {
		return []models.Violation{{
			Code:     models.ViolationVendorNotAuthorized,
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("Vendor %s is not authorized for payment.", v.Name),
		}}
	}
	return nil
}

func checkVendorInvoiceLimit(in ruleInput) []models.Violation {
	v := in.vendor
	if v == nil || !v.HasInvoiceLimit() {
		return nil
	}
	if in.invoice.TotalAmount.LessThanOrEqual(v.InvoiceLimit) {
		return nil
	}
	return []models.Violation{{
		Code:     models.ViolationVendorLimitExceeded,
		Severity: models.SeverityWarning,
		Message: fmt.Sprintf("Invoice total %s exceeds vendor %s invoice limit %s.",
			fmtAmount(in.invoice.TotalAmount, in.invoice.Currency),
			v.Name,
			fmtAmount(v.InvoiceLimit, in.invoice.Currency)),
	}}
}

func checkLineItemTotals(in ruleInput) []models.Violation {
	var violations []models.Violation
	tolerance := in.cfg.roundingTolerance(in.invoice.Currency)
	for _, item := range in.invoice.LineItems {
		deviation := item.ComputedTotal().Sub(item.TotalAmount).Abs()
		if deviation.GreaterThan(tolerance) {
			violations = append(violations, models.Violation{
				Code:     models.ViolationLineItemTotalMismatch,
				Severity: models.SeverityWarning,
				Message: fmt.Sprintf("Line %q states total %s but quantity x unit price is %s.",
					item.Description,
					fmtAmount(item.TotalAmount, in.invoice.Currency),
					fmtAmount(item.ComputedTotal(), in.invoice.Currency)),
			})
		}
	}
	return violations
}

// checkLineItemsAgainstPO compares invoice lines to the matched PO's lines:
// unknown items, quantity drift, and unit prices outside the 5% band.
func checkLineItemsAgainstPO(in ruleInput) []models.Violation {
	po := in.match.MatchedPo
	if po == nil || len(po.LineItems) == 0 {
		return nil
	}
	var violations []models.Violation
	for _, item := range in.invoice.LineItems {
		poItem := po.FindLineItem(item.Description, item.ProductCode)
		if poItem == nil {
			violations = append(violations, models.Violation{
				Code:     models.ViolationLineItemNotInPO,
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("Line %q does not appear on purchase order %s.", item.Description, po.PoNumber),
			})
			continue
		}
		if !item.Quantity.Equal(poItem.Quantity) {
			violations = append(violations, models.Violation{
				Code:     models.ViolationLineItemQtyMismatch,
				Severity: models.SeverityWarning,
				Message: fmt.Sprintf("Line %q quantity %s differs from purchase order quantity %s.",
					item.Description, item.Quantity, poItem.Quantity),
			})
		}
		tolerance := poItem.UnitPrice.Mul(priceTolerancePercent).Abs()
		if item.UnitPrice.Sub(poItem.UnitPrice).Abs().GreaterThan(tolerance) {
			violations = append(violations, models.Violation{
				Code:     models.ViolationLineItemPriceMismatch,
				Severity: models.SeverityWarning,
				Message: fmt.Sprintf("Line %q unit price %s deviates from purchase order price %s beyond 5%% tolerance.",
					item.Description,
					fmtAmount(item.UnitPrice, in.invoice.Currency),
					fmtAmount(poItem.UnitPrice, in.invoice.Currency)),
			})
		}
	}
	return violations
}

// checkSubtotalTaxTotal verifies subtotal + tax reconciles to the stated
// total. Skipped when neither component was extracted.
func checkSubtotalTaxTotal(in ruleInput) []models.Violation {
	inv := in.invoice
	if inv.SubtotalAmount.IsZero() && inv.TaxAmount.IsZero() {
		return nil
	}
	expected := inv.SubtotalAmount.Add(inv.TaxAmount)
	deviation := expected.Sub(inv.TotalAmount).Abs()
	if deviation.LessThanOrEqual(in.cfg.roundingTolerance(inv.Currency)) {
		return nil
	}
	return []models.Violation{{
		Code:     models.ViolationSubtotalTaxMismatch,
		Severity: models.SeverityWarning,
		Message: fmt.Sprintf("Subtotal %s plus tax %s is %s, which does not reconcile to total %s.",
			fmtAmount(inv.SubtotalAmount, inv.Currency),
			fmtAmount(inv.TaxAmount, inv.Currency),
			fmtAmount(expected, inv.Currency),
			fmtAmount(inv.TotalAmount, inv.Currency)),
	}}
}

func checkTaxRate(in ruleInput) []models.Violation {
	inv := in.invoice
	if !inv.SubtotalAmount.IsPositive() || !inv.TaxAmount.IsPositive() {
		return nil
	}
	rate := inv.TaxAmount.Div(inv.SubtotalAmount)
	if rate.LessThanOrEqual(in.cfg.MaxTaxRate) {
		return nil
	}
	return []models.Violation{{
		Code:     models.ViolationTaxRateExceeded,
		Severity: models.SeverityWarning,
		Message: fmt.Sprintf("Effective tax rate %s%% exceeds the maximum plausible rate %s%%.",
			rate.Mul(decimalHundred).Round(1),
			in.cfg.MaxTaxRate.Mul(decimalHundred).Round(1)),
	}}
}

// checkFutureInvoiceDate flags invoices dated after the run's as-of date.
// The as-of date is an input, never the wall clock, so runs stay reproducible.
func checkFutureInvoiceDate(in ruleInput) []models.Violation {
	if in.asOf.IsZero() || in.invoice.InvoiceDate.IsZero() {
		return nil
	}
	if !in.invoice.InvoiceDate.After(in.asOf) {
		return nil
	}
	return []models.Violation{{
		Code:     models.ViolationFutureInvoiceDate,
		Severity: models.SeverityWarning,
		Message: fmt.Sprintf("Invoice date %s is after the processing date %s.",
			in.invoice.InvoiceDate.Format("2006-01-02"), in.asOf.Format("2006-01-02")),
	}}
}

// checkThresholdBand records which approval band the total falls into.
// Informational only; a total inside the auto-approve band records nothing.
func checkThresholdBand(in ruleInput) []models.Violation {
	total := in.invoice.TotalAmount
	if total.GreaterThan(in.cfg.RequireManualReviewThreshold) {
		return []models.Violation{{
			Code:     models.ViolationThresholdBand,
			Severity: models.SeverityInfo,
			Message: fmt.Sprintf("Invoice total %s is above the manual-review threshold %s.",
				fmtAmount(total, in.invoice.Currency),
				fmtAmount(in.cfg.RequireManualReviewThreshold, in.invoice.Currency)),
		}}
	}
	if total.GreaterThan(in.cfg.AutoApproveThreshold) {
		return []models.Violation{{
			Code:     models.ViolationThresholdBand,
			Severity: models.SeverityInfo,
			Message: fmt.Sprintf("Invoice total %s is above the auto-approve threshold %s.",
				fmtAmount(total, in.invoice.Currency),
				fmtAmount(in.cfg.AutoApproveThreshold, in.invoice.Currency)),
		}}
	}
	return nil
}

// roundingTolerance falls back to one minor unit of the invoice currency
// when no explicit tolerance is configured.
func (c Config) roundingTolerance(currency string) decimal.Decimal {
	if c.RoundingTolerance.IsPositive() {
		return c.RoundingTolerance
	}
	return models.OneMinorUnit(currency)
}

func fmtAmount(d decimal.Decimal, currency string) string {
	return d.StringFixed(models.MinorUnitExponent(currency))
}
