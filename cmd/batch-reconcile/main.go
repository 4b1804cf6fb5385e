// batch-reconcile runs the reconciliation engine over a folder of extracted
// invoice records against a purchase-order/vendor snapshot file.
//
// Usage:
//
//	go run ./cmd/batch-reconcile -dir ./extracted -snapshot ./snapshot.json -out ./results.json
//
// Each *.json file in -dir is one extracted invoice record. The snapshot file
// holds {"purchase_orders": [...], "vendors": [...]}. One file's failure is
// reported in the results and never aborts the rest of the batch.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/payables_backend/config"
	"bitbucket.org/mmdatafocus/payables_backend/engine"
	"bitbucket.org/mmdatafocus/payables_backend/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type snapshotFile struct {
	PurchaseOrders []map[string]any `json:"purchase_orders"`
	Vendors        []map[string]any `json:"vendors"`
}

type batchResult struct {
	RunId         string                       `json:"run_id"`
	File          string                       `json:"file"`
	InvoiceNumber string                       `json:"invoice_number,omitempty"`
	Error         string                       `json:"error,omitempty"`
	Result        *models.ReconciliationResult `json:"result,omitempty"`
}

func main() {
	dir := flag.String("dir", "", "directory of extracted invoice JSON files")
	snapshotPath := flag.String("snapshot", "", "purchase order / vendor snapshot JSON file")
	outPath := flag.String("out", "results.json", "output file for batch results")
	workers := flag.Int("workers", 4, "concurrent reconciliation workers")
	asOfFlag := flag.String("as-of", "", "processing date (YYYY-MM-DD), defaults to today")
	flag.Parse()

	logger := config.GetLogger()
	if *dir == "" || *snapshotPath == "" {
		fmt.Fprintln(os.Stderr, "both -dir and -snapshot are required")
		os.Exit(2)
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if *asOfFlag != "" {
		parsed, err := engine.ParseDate(*asOfFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -as-of: %v\n", err)
			os.Exit(2)
		}
		asOf = parsed
	}

	engineCfg, err := config.LoadEngineConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine configuration rejected: %v\n", err)
		os.Exit(1)
	}
	eng, err := engine.NewEngine(engineCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine construction failed: %v\n", err)
		os.Exit(1)
	}

	snapshot, err := loadSnapshot(*snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading snapshot: %v\n", err)
		os.Exit(1)
	}
	candidates, vendorsById, err := normalizeSnapshot(snapshot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshot is malformed: %v\n", err)
		os.Exit(1)
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "listing %s: %v\n", *dir, err)
		os.Exit(1)
	}
	sort.Strings(files)
	logger.WithFields(logrus.Fields{"files": len(files), "workers": *workers}).Info("starting batch reconciliation")

	items := make([]engine.BatchItem, 0, len(files))
	invoices := map[string]*models.Invoice{}
	normalizeFailures := map[string]error{}
	for _, file := range files {
		inv, err := loadInvoice(file)
		if err != nil {
			// Isolated: record the failure, keep going.
			normalizeFailures[file] = err
			continue
		}
		invoices[file] = inv
		items = append(items, engine.BatchItem{
			Key: file,
			Input: engine.Input{
				Invoice:    inv,
				Candidates: candidates,
				Vendor:     vendorsById[inv.VendorId],
				AsOfDate:   asOf,
			},
		})
	}

	outcomes := eng.ReconcileBatch(items, *workers)
	results := assembleResults(files, invoices, normalizeFailures, outcomes)

	if err := writeResults(*outPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "writing results: %v\n", err)
		os.Exit(1)
	}

	var failed int
	actions := map[models.ActionType]int{}
	for _, r := range results {
		if r.Error != "" {
			failed++
			continue
		}
		actions[r.Result.Recommendation.Action]++
	}
	logger.WithFields(logrus.Fields{
		"total":    len(results),
		"failed":   failed,
		"approve":  actions[models.ActionApprove],
		"reject":   actions[models.ActionReject],
		"hold":     actions[models.ActionHold],
		"review":   actions[models.ActionManualReview],
		"out_file": *outPath,
	}).Info("batch reconciliation finished")
}

// assembleResults keeps the output in sorted file order, interleaving parse
// failures with engine outcomes so results.json reads as an audit trail.
func assembleResults(files []string, invoices map[string]*models.Invoice, normalizeFailures map[string]error, outcomes []engine.BatchOutcome) []batchResult {
	outcomesByFile := make(map[string]engine.BatchOutcome, len(outcomes))
	for _, outcome := range outcomes {
		outcomesByFile[outcome.Key] = outcome
	}

	results := make([]batchResult, 0, len(files))
	for _, file := range files {
		r := batchResult{RunId: uuid.NewString(), File: file}
		if err, failed := normalizeFailures[file]; failed {
			r.Error = err.Error()
			results = append(results, r)
			continue
		}
		r.InvoiceNumber = invoices[file].InvoiceNumber
		if outcome := outcomesByFile[file]; outcome.Err != nil {
			r.Error = outcome.Err.Error()
		} else {
			r.Result = outcome.Result
		}
		results = append(results, r)
	}
	return results
}

func loadSnapshot(path string) (*snapshotFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snapshot snapshotFile
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func normalizeSnapshot(snapshot *snapshotFile) ([]*models.PurchaseOrder, map[string]*models.Vendor, error) {
	candidates := make([]*models.PurchaseOrder, 0, len(snapshot.PurchaseOrders))
	for i, raw := range snapshot.PurchaseOrders {
		po, err := engine.NormalizePurchaseOrder(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("purchase_orders[%d]: %w", i, err)
		}
		candidates = append(candidates, po)
	}
	vendorsById := map[string]*models.Vendor{}
	for i, raw := range snapshot.Vendors {
		vendor, err := engine.NormalizeVendor(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("vendors[%d]: %w", i, err)
		}
		vendorsById[vendor.VendorId] = vendor
	}
	return candidates, vendorsById, nil
}

func loadInvoice(path string) (*models.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if _, ok := raw["source_file"]; !ok {
		raw["source_file"] = filepath.Base(path)
	}
	return engine.NormalizeInvoice(raw)
}

func writeResults(path string, results []batchResult) error {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
