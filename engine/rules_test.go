package engine

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/payables_backend/models"
	"github.com/shopspring/decimal"
)

func testVendor() *models.Vendor {
	authorized := true
	return &models.Vendor{
		VendorId:     "V-1001",
		Name:         "Acme Office Supplies",
		Status:       models.VendorStatusActive,
		Authorized:   &authorized,
		InvoiceLimit: decimal.NewFromInt(10000),
		Currency:     "USD",
	}
}

func matchedResult(po *models.PurchaseOrder) models.MatchResult {
	return models.MatchResult{
		MatchedPo:       po,
		MatchBasis:      models.MatchBasisExactReference,
		MatchPercentage: decimal.NewFromInt(100),
	}
}

func findViolation(violations []models.Violation, code models.ViolationCode) *models.Violation {
	for i := range violations {
		if violations[i].Code == code {
			return &violations[i]
		}
	}
	return nil
}

func TestRulePONotFound(t *testing.T) {
	eng := newTestEngine(t)
	inv := testInvoice("500.00")
	inv.PoReference = "PO-9999"

	violations := eng.EvaluateRules(inv, models.MatchResult{MatchBasis: models.MatchBasisNone}, testVendor(), time.Time{})
	v := findViolation(violations, models.ViolationPONotFound)
	if v == nil {
		t.Fatal("missing PO_NOT_FOUND violation")
	}
	if v.Severity != models.SeverityCritical {
		t.Fatalf("severity = %s, want CRITICAL", v.Severity)
	}
}

func TestRulePONotActive(t *testing.T) {
	eng := newTestEngine(t)
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "500.00")
	po.Status = models.POStatusCancelled

	violations := eng.EvaluateRules(testInvoice("500.00"), matchedResult(po), testVendor(), time.Time{})
	v := findViolation(violations, models.ViolationPONotActive)
	if v == nil || v.Severity != models.SeverityCritical {
		t.Fatalf("cancelled PO must be critical, got %+v", v)
	}
}

func TestRuleAmountOverage(t *testing.T) {
	eng := newTestEngine(t) // max overage 5%
	cases := []struct {
		name       string
		total      string
		authorized string
		want       models.Severity // "" means no violation
	}{
		{"under authorization", "2400.00", "2500.00", ""},
		{"within tolerance", "2600.00", "2500.00", ""},                          // 4%
		{"just over tolerance", "2660.00", "2500.00", models.SeverityWarning},   // 6.4%
		{"double the tolerance", "2750.00", "2500.00", models.SeverityCritical}, // 10% >= 2x5%
		{"far past tolerance", "5000.00", "2500.00", models.SeverityCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			po := testPO("PO-1", "V-1001", "Acme Office Supplies", tc.authorized)
			violations := eng.EvaluateRules(testInvoice(tc.total), matchedResult(po), testVendor(), time.Time{})
			v := findViolation(violations, models.ViolationAmountOverage)
			if tc.want == "" {
				if v != nil {
					t.Fatalf("unexpected overage violation: %+v", v)
				}
				return
			}
			if v == nil {
				t.Fatal("missing AMOUNT_OVERAGE violation")
			}
			if v.Severity != tc.want {
				t.Fatalf("severity = %s, want %s", v.Severity, tc.want)
			}
		})
	}
}

func TestRuleZeroAuthorizedPO(t *testing.T) {
	eng := newTestEngine(t)
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "0.00")

	// Must produce a critical violation, never a division failure.
	violations := eng.EvaluateRules(testInvoice("500.00"), matchedResult(po), testVendor(), time.Time{})
	v := findViolation(violations, models.ViolationInvalidPOAmount)
	if v == nil || v.Severity != models.SeverityCritical {
		t.Fatalf("zero-authorized PO must be critical INVALID_PO_AMOUNT, got %+v", v)
	}
	if findViolation(violations, models.ViolationAmountOverage) != nil {
		t.Fatal("overage must not be computed against a zero-authorized PO")
	}
}

func TestRuleVendorAuthorization(t *testing.T) {
	eng := newTestEngine(t)
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "1000.00")
	inv := testInvoice("500.00")

	t.Run("missing vendor record", func(t *testing.T) {
		violations := eng.EvaluateRules(inv, matchedResult(po), nil, time.Time{})
		v := findViolation(violations, models.ViolationVendorRecordMissing)
		if v == nil || v.Severity != models.SeverityWarning {
			t.Fatalf("absent vendor must warn, got %+v", v)
		}
	})
	t.Run("blacklisted", func(t *testing.T) {
		vendor := testVendor()
		vendor.Status = models.VendorStatusBlacklisted
		violations := eng.EvaluateRules(inv, matchedResult(po), vendor, time.Time{})
		v := findViolation(violations, models.ViolationVendorBlacklisted)
		if v == nil || v.Severity != models.SeverityCritical {
			t.Fatalf("blacklisted vendor must be critical, got %+v", v)
		}
	})
	t.Run("suspended", func(t *testing.T) {
		vendor := testVendor()
		vendor.Status = models.VendorStatusSuspended
		violations := eng.EvaluateRules(inv, matchedResult(po), vendor, time.Time{})
		if findViolation(violations, models.ViolationVendorSuspended) == nil {
			t.Fatal("suspended vendor must violate")
		}
	})
	t.Run("not authorized", func(t *testing.T) {
		vendor := testVendor()
		notAuthorized := false
		vendor.Authorized = &notAuthorized
		violations := eng.EvaluateRules(inv, matchedResult(po), vendor, time.Time{})
		if findViolation(violations, models.ViolationVendorNotAuthorized) == nil {
			t.Fatal("unauthorized vendor must violate")
		}
	})
}

func TestRuleVendorInvoiceLimit(t *testing.T) {
	eng := newTestEngine(t)
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "20000.00")
	vendor := testVendor() // limit 10000

	violations := eng.EvaluateRules(testInvoice("15000.00"), matchedResult(po), vendor, time.Time{})
	v := findViolation(violations, models.ViolationVendorLimitExceeded)
	if v == nil || v.Severity != models.SeverityWarning {
		t.Fatalf("limit breach must warn, got %+v", v)
	}
}

func TestRuleLineItemTotals(t *testing.T) {
	eng := newTestEngine(t)
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "1000.00")
	inv := testInvoice("500.00")
	inv.LineItems = []models.InvoiceLineItem{
		{Description: "Widgets", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("10.00"), TotalAmount: decimal.RequireFromString("100.00")},
		{Description: "Rounded", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("33.333"), TotalAmount: decimal.RequireFromString("100.00")},
		{Description: "Off by a lot", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("10.00"), TotalAmount: decimal.RequireFromString("40.00")},
	}

	violations := eng.EvaluateRules(inv, matchedResult(po), testVendor(), time.Time{})
	var mismatches int
	for _, v := range violations {
		if v.Code == models.ViolationLineItemTotalMismatch {
			mismatches++
		}
	}
	if mismatches != 1 {
		t.Fatalf("got %d mismatches, want only the clearly-off line", mismatches)
	}
}

func TestRuleLineItemsAgainstPO(t *testing.T) {
	eng := newTestEngine(t)
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "5000.00")
	po.LineItems = []models.POLineItem{
		{Description: "Toner cartridge", Quantity: decimal.NewFromInt(25), UnitPrice: decimal.RequireFromString("50.00")},
		{Description: "Copy paper", Quantity: decimal.NewFromInt(100), UnitPrice: decimal.RequireFromString("4.00")},
	}

	line := func(desc, qty, price string) models.InvoiceLineItem {
		q := decimal.RequireFromString(qty)
		p := decimal.RequireFromString(price)
		return models.InvoiceLineItem{Description: desc, Quantity: q, UnitPrice: p, TotalAmount: q.Mul(p)}
	}
	cases := []struct {
		name string
		item models.InvoiceLineItem
		want []models.ViolationCode
	}{
		{"matching line", line("Toner cartridge", "25", "50.00"), nil},
		{"unknown line", line("Mystery item", "1", "10.00"), []models.ViolationCode{models.ViolationLineItemNotInPO}},
		{"quantity drift", line("Toner cartridge", "30", "50.00"), []models.ViolationCode{models.ViolationLineItemQtyMismatch}},
		{"price inside 5% band", line("Toner cartridge", "25", "52.50"), nil},
		{"price outside 5% band", line("Toner cartridge", "25", "60.00"), []models.ViolationCode{models.ViolationLineItemPriceMismatch}},
		{
			"quantity and price both off",
			line("Toner cartridge", "30", "60.00"),
			[]models.ViolationCode{models.ViolationLineItemQtyMismatch, models.ViolationLineItemPriceMismatch},
		},
		{"case-insensitive description", line("copy paper", "100", "4.00"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := testInvoice("1250.00")
			inv.LineItems = []models.InvoiceLineItem{tc.item}
			violations := eng.EvaluateRules(inv, matchedResult(po), testVendor(), time.Time{})

			var got []models.ViolationCode
			for _, v := range violations {
				switch v.Code {
				case models.ViolationLineItemNotInPO, models.ViolationLineItemQtyMismatch, models.ViolationLineItemPriceMismatch:
					got = append(got, v.Code)
					if v.Severity != models.SeverityWarning {
						t.Fatalf("%s severity = %s, want WARNING", v.Code, v.Severity)
					}
				}
			}
			if len(got) != len(tc.want) {
				t.Fatalf("codes = %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("codes = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestRuleLineItemsSkippedWithoutPOLines(t *testing.T) {
	eng := newTestEngine(t)
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "5000.00")

	inv := testInvoice("1250.00")
	inv.LineItems = []models.InvoiceLineItem{
		{Description: "Anything", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("10.00"), TotalAmount: decimal.RequireFromString("10.00")},
	}
	violations := eng.EvaluateRules(inv, matchedResult(po), testVendor(), time.Time{})
	if findViolation(violations, models.ViolationLineItemNotInPO) != nil {
		t.Fatal("a PO without recorded lines cannot flag unknown invoice lines")
	}
}

func TestRuleSubtotalTaxTotal(t *testing.T) {
	eng := newTestEngine(t)
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "1000.00")

	inv := testInvoice("550.00")
	inv.SubtotalAmount = decimal.RequireFromString("500.00")
	inv.TaxAmount = decimal.RequireFromString("40.00") // 540 != 550
	violations := eng.EvaluateRules(inv, matchedResult(po), testVendor(), time.Time{})
	if findViolation(violations, models.ViolationSubtotalTaxMismatch) == nil {
		t.Fatal("subtotal+tax drift must warn")
	}

	inv.TaxAmount = decimal.RequireFromString("50.00") // reconciles
	violations = eng.EvaluateRules(inv, matchedResult(po), testVendor(), time.Time{})
	if findViolation(violations, models.ViolationSubtotalTaxMismatch) != nil {
		t.Fatal("reconciling amounts must not warn")
	}
}

func TestRuleTaxRate(t *testing.T) {
	eng := newTestEngine(t) // max 15%
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "1000.00")

	inv := testInvoice("600.00")
	inv.SubtotalAmount = decimal.RequireFromString("500.00")
	inv.TaxAmount = decimal.RequireFromString("100.00") // 20%
	violations := eng.EvaluateRules(inv, matchedResult(po), testVendor(), time.Time{})
	if findViolation(violations, models.ViolationTaxRateExceeded) == nil {
		t.Fatal("20% tax rate must warn")
	}
}

func TestRuleFutureInvoiceDate(t *testing.T) {
	eng := newTestEngine(t)
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "1000.00")
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	inv := testInvoice("500.00") // dated 2024-03-15
	violations := eng.EvaluateRules(inv, matchedResult(po), testVendor(), asOf)
	if findViolation(violations, models.ViolationFutureInvoiceDate) == nil {
		t.Fatal("invoice dated after as-of must warn")
	}

	// A zero as-of date disables the check entirely.
	violations = eng.EvaluateRules(inv, matchedResult(po), testVendor(), time.Time{})
	if findViolation(violations, models.ViolationFutureInvoiceDate) != nil {
		t.Fatal("zero as-of date must skip the future-date rule")
	}
}

func TestRuleThresholdBands(t *testing.T) {
	eng := newTestEngine(t) // auto 1000, review 5000
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "100000.00")

	t.Run("inside auto-approve band records nothing", func(t *testing.T) {
		violations := eng.EvaluateRules(testInvoice("500.00"), matchedResult(po), testVendor(), time.Time{})
		if findViolation(violations, models.ViolationThresholdBand) != nil {
			t.Fatal("no band record expected at 500")
		}
	})
	t.Run("above auto-approve", func(t *testing.T) {
		violations := eng.EvaluateRules(testInvoice("2000.00"), matchedResult(po), testVendor(), time.Time{})
		v := findViolation(violations, models.ViolationThresholdBand)
		if v == nil || v.Severity != models.SeverityInfo {
			t.Fatalf("band record must be informational, got %+v", v)
		}
	})
	t.Run("above manual review", func(t *testing.T) {
		violations := eng.EvaluateRules(testInvoice("9000.00"), matchedResult(po), testVendor(), time.Time{})
		v := findViolation(violations, models.ViolationThresholdBand)
		if v == nil || v.Severity != models.SeverityInfo {
			t.Fatalf("band record must be informational, got %+v", v)
		}
	})
}

// The violation sequence must follow rule-table order for audit display.
func TestRuleOrderingIsStable(t *testing.T) {
	eng := newTestEngine(t)
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "2500.00")
	po.Status = models.POStatusClosed
	vendor := testVendor()
	vendor.Status = models.VendorStatusSuspended

	inv := testInvoice("2750.00")
	violations := eng.EvaluateRules(inv, matchedResult(po), vendor, time.Time{})

	var codes []models.ViolationCode
	for _, v := range violations {
		codes = append(codes, v.Code)
	}
	want := []models.ViolationCode{
		models.ViolationPONotActive,
		models.ViolationAmountOverage,
		models.ViolationVendorSuspended,
		models.ViolationThresholdBand,
	}
	if len(codes) != len(want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}
