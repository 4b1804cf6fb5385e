package engine

import (
	"fmt"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/payables_backend/models"
)

// Engine reconciles extracted invoices against purchase orders and produces
// payment-action recommendations. It holds only immutable configuration, so
// a single Engine is safe for any number of concurrent runs; each run must be
// given its own candidate-PO snapshot.
type Engine struct {
	cfg Config
}

// NewEngine validates the configuration up front: a bad threshold fails here,
// before any run executes.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's static configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Input is one reconciliation run's worth of immutable inputs. Vendor may be
// nil (its absence is flagged by a rule, not treated as a failure). AsOfDate
// anchors date-sanity rules; when zero those rules are skipped.
type Input struct {
	Invoice    *models.Invoice
	Candidates []*models.PurchaseOrder
	Vendor     *models.Vendor
	AsOfDate   time.Time
}

// Reconcile executes the full pipeline: match, evaluate rules, score risk,
// build the recommendation. It is a pure function of the input plus
// configuration and never touches I/O or the clock.
func (e *Engine) Reconcile(in Input) *models.ReconciliationResult {
	match := e.MatchPurchaseOrder(in.Invoice, in.Candidates)
	violations := e.EvaluateRules(in.Invoice, match, in.Vendor, in.AsOfDate)
	risk, confidence := e.ScoreRisk(violations, match)
	recommendation := e.BuildRecommendation(in.Invoice, match, violations, risk, confidence)
	return &models.ReconciliationResult{
		Match:          match,
		Violations:     violations,
		Recommendation: recommendation,
	}
}

// ReconcileRaw normalizes loosely-typed extracted records and then runs the
// pipeline. A malformed record aborts only this run.
func (e *Engine) ReconcileRaw(rawInvoice map[string]any, rawPos []map[string]any, rawVendor map[string]any, asOf time.Time) (*models.Invoice, *models.ReconciliationResult, error) {
	inv, err := NormalizeInvoice(rawInvoice)
	if err != nil {
		return nil, nil, err
	}
	candidates := make([]*models.PurchaseOrder, 0, len(rawPos))
	for _, raw := range rawPos {
		po, err := NormalizePurchaseOrder(raw)
		if err != nil {
			return nil, nil, err
		}
		candidates = append(candidates, po)
	}
	var vendor *models.Vendor
	if rawVendor != nil {
		vendor, err = NormalizeVendor(rawVendor)
		if err != nil {
			return nil, nil, err
		}
	}
	result := e.Reconcile(Input{Invoice: inv, Candidates: candidates, Vendor: vendor, AsOfDate: asOf})
	return inv, result, nil
}

// BatchItem is one unit of batch work, keyed so callers can correlate
// outcomes back to source files.
type BatchItem struct {
	Key   string
	Input Input
}

// BatchOutcome reports one item's result or its isolated failure.
type BatchOutcome struct {
	Key    string
	Result *models.ReconciliationResult
	Err    error
}

// ReconcileBatch runs independent items across a bounded worker pool.
// One item's failure (including a panic inside a run) never aborts its
// siblings; outcomes come back in item order.
func (e *Engine) ReconcileBatch(items []BatchItem, workers int) []BatchOutcome {
	if workers < 1 {
		workers = 1
	}
	outcomes := make([]BatchOutcome, len(items))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = e.runIsolated(items[idx])
			}
		}()
	}
	for idx := range items {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

func (e *Engine) runIsolated(item BatchItem) (outcome BatchOutcome) {
	outcome.Key = item.Key
	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("reconciliation run %q panicked: %v", item.Key, r)
		}
	}()
	if item.Input.Invoice == nil {
		outcome.Err = malformed("invoice", "invoice", "is missing")
		return
	}
	outcome.Result = e.Reconcile(item.Input)
	return
}
