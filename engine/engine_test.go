package engine

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/payables_backend/models"
	"github.com/shopspring/decimal"
)

func TestNewEngineRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoApproveThreshold = decimal.NewFromInt(9000) // above manual review
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("expected configuration error")
	}
	cfg = DefaultConfig()
	cfg.MaxOveragePercentage = decimal.NewFromInt(-1)
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("expected configuration error for negative overage")
	}
}

// Identical inputs must produce byte-identical serialized results, run after run.
func TestReconcileIsDeterministic(t *testing.T) {
	eng := newTestEngine(t)
	in := Input{
		Invoice:    testInvoice("2750.00"),
		Candidates: []*models.PurchaseOrder{testPO("PO-1", "V-1001", "Acme Office Supplies", "2500.00")},
		Vendor:     testVendor(),
		AsOfDate:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	in.Invoice.PoReference = "PO-1"

	first, err := json.Marshal(eng.Reconcile(in))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(eng.Reconcile(in))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(first) != string(again) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	eng := newTestEngine(t)
	inv := testInvoice("500.00")
	po := testPO("PO-1", "V-1001", "Acme Office Supplies", "500.00")
	vendor := testVendor()

	before, _ := json.Marshal(struct {
		Inv *models.Invoice
		Po  *models.PurchaseOrder
		Ven *models.Vendor
	}{inv, po, vendor})

	eng.Reconcile(Input{Invoice: inv, Candidates: []*models.PurchaseOrder{po}, Vendor: vendor})

	after, _ := json.Marshal(struct {
		Inv *models.Invoice
		Po  *models.PurchaseOrder
		Ven *models.Vendor
	}{inv, po, vendor})
	if string(before) != string(after) {
		t.Fatalf("inputs mutated:\n%s\n%s", before, after)
	}
}

func TestReconcileRaw(t *testing.T) {
	eng := newTestEngine(t)
	rawInvoice := map[string]any{
		"invoice_number": "INV-7",
		"vendor_id":      "V-1001",
		"vendor_name":    "Acme Office Supplies",
		"invoice_date":   "2024-03-15",
		"total_amount":   "$500.00",
		"po_reference":   "PO-1",
	}
	rawPos := []map[string]any{{
		"po_number":        "PO-1",
		"vendor_id":        "V-1001",
		"vendor_name":      "Acme Office Supplies",
		"total_authorized": "500.00",
		"status":           "Active",
	}}

	inv, result, err := eng.ReconcileRaw(rawInvoice, rawPos, nil, time.Time{})
	if err != nil {
		t.Fatalf("ReconcileRaw: %v", err)
	}
	if inv.InvoiceNumber != "INV-7" {
		t.Fatalf("invoice number = %s", inv.InvoiceNumber)
	}
	if result.Match.MatchBasis != models.MatchBasisExactReference {
		t.Fatalf("match basis = %s", result.Match.MatchBasis)
	}
	// No vendor record supplied: that is a warning, not a failure.
	if findViolation(result.Violations, models.ViolationVendorRecordMissing) == nil {
		t.Fatal("missing vendor must produce VENDOR_RECORD_MISSING")
	}
}

func TestReconcileRawMalformedInvoice(t *testing.T) {
	eng := newTestEngine(t)
	_, _, err := eng.ReconcileRaw(map[string]any{"invoice_number": "INV-8"}, nil, nil, time.Time{})
	if err == nil {
		t.Fatal("expected malformed record error")
	}
	if !IsMalformedRecord(err) {
		t.Fatalf("err = %v, want malformed record", err)
	}
}

func TestReconcileBatch(t *testing.T) {
	eng := newTestEngine(t)
	const n = 200
	items := make([]BatchItem, 0, n)
	for i := 0; i < n; i++ {
		inv := testInvoice("500.00")
		inv.InvoiceNumber = fmt.Sprintf("INV-%04d", i)
		inv.PoReference = "PO-1"
		items = append(items, BatchItem{
			Key: inv.InvoiceNumber,
			Input: Input{
				Invoice:    inv,
				Candidates: []*models.PurchaseOrder{testPO("PO-1", "V-1001", "Acme Office Supplies", "500.00")},
				Vendor:     testVendor(),
			},
		})
	}
	// A missing invoice in the middle must fail alone.
	items[57].Input.Invoice = nil

	outcomes := eng.ReconcileBatch(items, 8)
	if len(outcomes) != n {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), n)
	}
	for i, out := range outcomes {
		if i == 57 {
			if out.Err == nil {
				t.Fatal("item 57 must fail")
			}
			if !IsMalformedRecord(out.Err) {
				t.Fatalf("item 57 err = %v, want malformed record", out.Err)
			}
			continue
		}
		if out.Err != nil {
			t.Fatalf("item %d failed: %v", i, out.Err)
		}
		if out.Key != items[i].Key {
			t.Fatalf("outcome %d key = %s, want %s", i, out.Key, items[i].Key)
		}
		if out.Result.Recommendation.Action != models.ActionApprove {
			t.Fatalf("item %d action = %s", i, out.Result.Recommendation.Action)
		}
	}
}

func TestReconcileBatchSingleWorkerMatchesParallel(t *testing.T) {
	eng := newTestEngine(t)
	items := []BatchItem{}
	for i := 0; i < 20; i++ {
		inv := testInvoice(fmt.Sprintf("%d.00", 100*(i+1)))
		inv.InvoiceNumber = fmt.Sprintf("INV-%d", i)
		items = append(items, BatchItem{Key: inv.InvoiceNumber, Input: Input{
			Invoice:    inv,
			Candidates: []*models.PurchaseOrder{testPO("PO-1", "V-1001", "Acme Office Supplies", "1000.00")},
			Vendor:     testVendor(),
		}})
	}

	serial, _ := json.Marshal(eng.ReconcileBatch(items, 1))
	parallel, _ := json.Marshal(eng.ReconcileBatch(items, 8))
	if string(serial) != string(parallel) {
		t.Fatal("worker count changed batch results")
	}
}
