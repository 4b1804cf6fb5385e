package engine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  string
	}{
		{"plain string", "1234.50", "1234.5"},
		{"currency symbol", "$1,234.50", "1234.5"},
		{"euro symbol", "€2500.00", "2500"},
		{"currency suffix", "1234.50 USD", "1234.5"},
		{"words fail", "ten dollars", ""},
		{"grouping spaces", "1 234.50", "1234.5"},
		{"negative passes through", "-42.00", "-42"},
		{"float64", 99.99, "99.99"},
		{"int", 7, "7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmount(tc.input)
			if tc.want == "" {
				if err == nil {
					t.Fatalf("expected parse error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	valid := []string{
		"2024-03-15",
		"2024-03-15T10:30:00Z",
		"03/15/2024",
		"2024/03/15",
		"15-Mar-2024",
		"March 15, 2024",
	}
	for _, input := range valid {
		if _, err := ParseDate(input); err != nil {
			t.Fatalf("ParseDate(%q): %v", input, err)
		}
	}
	invalid := []string{"15.03.2024", "next tuesday", ""}
	for _, input := range invalid {
		if _, err := ParseDate(input); err == nil {
			t.Fatalf("ParseDate(%q) should fail", input)
		}
	}
}

func TestNormalizeInvoice(t *testing.T) {
	raw := map[string]any{
		"invoice_number":  "INV-1001",
		"vendor_id":       "V-1001",
		"vendor_name":     "Acme Office Supplies",
		"invoice_date":    "2024-03-15",
		"due_date":        "2024-04-14",
		"subtotal_amount": "2,500.00",
		"tax_amount":      "$250.00",
		"total_amount":    "2750.00",
		"currency":        "usd",
		"po_reference":    " PO-2024-0001 ",
		"line_items": []any{
			map[string]any{
				"description":  "Toner cartridge",
				"quantity":     25,
				"unit_price":   "50.00",
				"total_amount": "1250.00",
				"product_code": "TON-05",
			},
		},
	}
	inv, err := NormalizeInvoice(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.InvoiceNumber != "INV-1001" {
		t.Errorf("invoice number = %q", inv.InvoiceNumber)
	}
	if inv.Currency != "USD" {
		t.Errorf("currency = %q, want USD", inv.Currency)
	}
	if inv.PoReference != "PO-2024-0001" {
		t.Errorf("po reference = %q, want trimmed", inv.PoReference)
	}
	if !inv.TotalAmount.Equal(decimal.RequireFromString("2750.00")) {
		t.Errorf("total = %s", inv.TotalAmount)
	}
	if len(inv.LineItems) != 1 || !inv.LineItems[0].UnitPrice.Equal(decimal.RequireFromString("50")) {
		t.Errorf("line items normalized wrong: %+v", inv.LineItems)
	}
}

func TestNormalizeInvoiceMalformed(t *testing.T) {
	cases := []struct {
		name  string
		raw   map[string]any
		field string
	}{
		{
			"missing invoice number",
			map[string]any{"vendor_name": "Acme", "total_amount": "10.00", "invoice_date": "2024-03-15"},
			"invoice_number",
		},
		{
			"unparsable total",
			map[string]any{"invoice_number": "INV-1", "vendor_name": "Acme", "total_amount": "ten dollars", "invoice_date": "2024-03-15"},
			"total_amount",
		},
		{
			"bad date format",
			map[string]any{"invoice_number": "INV-1", "vendor_name": "Acme", "total_amount": "10.00", "invoice_date": "15.03.2024"},
			"invoice_date",
		},
		{
			"line item without description",
			map[string]any{
				"invoice_number": "INV-1", "vendor_name": "Acme", "total_amount": "10.00", "invoice_date": "2024-03-15",
				"line_items": []any{map[string]any{"quantity": 1}},
			},
			"line_items[0].description",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeInvoice(tc.raw)
			if err == nil {
				t.Fatal("expected a malformed record error")
			}
			if !IsMalformedRecord(err) {
				t.Fatalf("expected MalformedRecordError, got %T", err)
			}
			mre := err.(*MalformedRecordError)
			if mre.Field != tc.field {
				t.Fatalf("field = %q, want %q", mre.Field, tc.field)
			}
		})
	}
}

// Semantic oddities are the rule evaluator's job; normalization must accept them.
func TestNormalizeInvoiceAcceptsNegativeAmounts(t *testing.T) {
	inv, err := NormalizeInvoice(map[string]any{
		"invoice_number": "INV-NEG",
		"vendor_name":    "Acme",
		"total_amount":   "-500.00",
		"invoice_date":   "2024-03-15",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.TotalAmount.IsNegative() {
		t.Fatalf("negative total should pass through, got %s", inv.TotalAmount)
	}
}

func TestNormalizePurchaseOrderStatus(t *testing.T) {
	for input, want := range map[string]string{
		"OPEN":      "Active",
		"active":    "Active",
		"Closed":    "Closed",
		"CANCELED":  "Cancelled",
		"CANCELLED": "Cancelled",
	} {
		po, err := NormalizePurchaseOrder(map[string]any{
			"po_number":        "PO-1",
			"vendor_name":      "Acme",
			"total_authorized": "100.00",
			"status":           input,
		})
		if err != nil {
			t.Fatalf("status %q: %v", input, err)
		}
		if string(po.Status) != want {
			t.Errorf("status %q = %s, want %s", input, po.Status, want)
		}
	}

	_, err := NormalizePurchaseOrder(map[string]any{
		"po_number": "PO-1", "vendor_name": "Acme", "total_authorized": "100.00", "status": "pending",
	})
	if !IsMalformedRecord(err) {
		t.Fatalf("unknown status should be malformed, got %v", err)
	}
}
