package engine

import (
	"strings"

	"bitbucket.org/mmdatafocus/payables_backend/models"
	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

var (
	decimalOne     = decimal.NewFromInt(1)
	decimalHalf    = decimal.RequireFromString("0.5")
	decimalHundred = decimal.NewFromInt(100)
)

// MatchPurchaseOrder finds the best-matching PO for an invoice among the
// vendor-scoped candidate snapshot. Strategies run in priority order and the
// first success wins:
//
//  1. exact reference: invoice po_reference equals a candidate po_number
//     (case-insensitive, whitespace-trimmed), any status; a closed PO still
//     matches and the rule evaluator flags it;
//  2. fuzzy: among active candidates sharing the invoice's vendor_id, a
//     weighted blend of vendor-name similarity and amount closeness;
//  3. none: absence is a first-class result, never an error.
func (e *Engine) MatchPurchaseOrder(inv *models.Invoice, candidates []*models.PurchaseOrder) models.MatchResult {
	if ref := normalizeReference(inv.PoReference); ref != "" {
		for _, po := range candidates {
			if normalizeReference(po.PoNumber) == ref {
				return models.MatchResult{
					MatchedPo:       po,
					MatchBasis:      models.MatchBasisExactReference,
					MatchPercentage: decimalHundred,
				}
			}
		}
	}

	var (
		best      *models.PurchaseOrder
		bestScore decimal.Decimal
		bestDiff  decimal.Decimal
	)
	for _, po := range candidates {
		if po.Status != models.POStatusActive {
			continue
		}
		if inv.VendorId == "" || po.VendorId != inv.VendorId {
			continue
		}
		score := fuzzyScore(inv, po)
		if score.LessThan(e.cfg.FuzzyMatchFloor) {
			continue
		}
		diff := inv.TotalAmount.Sub(po.TotalAuthorized).Abs()
		if best == nil || betterFuzzyCandidate(score, diff, po.PoNumber, bestScore, bestDiff, best.PoNumber) {
			best, bestScore, bestDiff = po, score, diff
		}
	}
	if best != nil {
		return models.MatchResult{
			MatchedPo:       best,
			MatchBasis:      models.MatchBasisFuzzy,
			MatchPercentage: bestScore.Mul(decimalHundred).Round(2),
		}
	}

	return models.MatchResult{MatchBasis: models.MatchBasisNone, MatchPercentage: decimal.Zero}
}

// fuzzyScore is 0.5*name similarity + 0.5*amount closeness, clamped to [0,1].
func fuzzyScore(inv *models.Invoice, po *models.PurchaseOrder) decimal.Decimal {
	name := nameSimilarity(inv.VendorName, po.VendorName)
	amount := amountCloseness(inv.TotalAmount, po.TotalAuthorized)
	return clamp01(name.Mul(decimalHalf).Add(amount.Mul(decimalHalf)))
}

// nameSimilarity is a normalized Levenshtein ratio over folded names:
// 1 - distance/maxLen, in [0,1].
func nameSimilarity(a, b string) decimal.Decimal {
	a = strings.ToLower(strings.Join(strings.Fields(a), " "))
	b = strings.ToLower(strings.Join(strings.Fields(b), " "))
	if a == "" || b == "" {
		return decimal.Zero
	}
	if a == b {
		return decimalOne
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return clamp01(decimalOne.Sub(decimal.NewFromInt(int64(dist)).Div(decimal.NewFromInt(int64(maxLen)))))
}

// amountCloseness is 1 - |invoice total - authorized| / authorized, clamped.
// A non-positive authorized total scores zero; the division guard belongs
// here, the critical violation belongs to the rule evaluator.
func amountCloseness(invoiceTotal, authorized decimal.Decimal) decimal.Decimal {
	if !authorized.IsPositive() {
		return decimal.Zero
	}
	ratio := invoiceTotal.Sub(authorized).Abs().Div(authorized)
	return clamp01(decimalOne.Sub(ratio))
}

// betterFuzzyCandidate orders by score, then smallest absolute amount
// difference, then lexicographically smallest po_number, so the winner does
// not depend on candidate iteration order.
func betterFuzzyCandidate(score, diff decimal.Decimal, poNumber string, bestScore, bestDiff decimal.Decimal, bestPoNumber string) bool {
	if !score.Equal(bestScore) {
		return score.GreaterThan(bestScore)
	}
	if !diff.Equal(bestDiff) {
		return diff.LessThan(bestDiff)
	}
	return poNumber < bestPoNumber
}

func normalizeReference(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

func clamp01(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(decimalOne) {
		return decimalOne
	}
	return d
}
