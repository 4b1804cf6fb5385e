package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Violation is one business-rule finding. Violations are generated in rule
// order and never mutated; their ordering drives the reasoning text and
// audit display.
type Violation struct {
	Code     ViolationCode `json:"code"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
}

// MatchResult is produced by the matcher and consumed read-only downstream.
// Absence of a PO is a first-class result, not an error.
type MatchResult struct {
	MatchedPo       *PurchaseOrder  `json:"matched_po,omitempty"`
	MatchBasis      MatchBasis      `json:"match_basis"`
	MatchPercentage decimal.Decimal `json:"match_percentage"`
}

func (m MatchResult) Found() bool {
	return m.MatchedPo != nil
}

// Recommendation is the terminal output of a reconciliation run. It carries
// no wall-clock data so identical inputs reproduce it byte for byte.
type Recommendation struct {
	Action               ActionType      `json:"action"`
	ConfidenceScore      decimal.Decimal `json:"confidence_score"`
	RiskLevel            RiskLevel       `json:"risk_level"`
	Reasoning            string          `json:"reasoning"`
	FlaggedIssues        []string        `json:"flagged_issues"`
	SuggestedActions     []string        `json:"suggested_actions"`
	NextSteps            []string        `json:"next_steps"`
	AutoApprovable       bool            `json:"auto_approvable"`
	RequiresManualReview bool            `json:"requires_manual_review"`
}

// ReconciliationResult bundles the recommendation with the intermediate
// artifacts collaborators persist alongside it.
type ReconciliationResult struct {
	Match          MatchResult    `json:"match_result"`
	Violations     []Violation    `json:"violations"`
	Recommendation Recommendation `json:"recommendation"`
}

// RecommendationRecord is the persisted shape of a produced recommendation.
// The run id and timestamps live here, outside the deterministic value.
type RecommendationRecord struct {
	ID                   int             `gorm:"primary_key" json:"id"`
	RunId                string          `gorm:"size:36;uniqueIndex;not null" json:"run_id"`
	InvoiceNumber        string          `gorm:"size:100;index;not null" json:"invoice_number"`
	VendorName           string          `gorm:"size:100" json:"vendor_name"`
	PoNumber             string          `gorm:"size:100" json:"po_number"`
	MatchBasis           MatchBasis      `gorm:"size:20" json:"match_basis"`
	MatchPercentage      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"match_percentage"`
	Action               ActionType      `gorm:"size:20;not null" json:"action"`
	ConfidenceScore      decimal.Decimal `gorm:"type:decimal(5,4);default:0" json:"confidence_score"`
	RiskLevel            RiskLevel       `gorm:"size:10;not null" json:"risk_level"`
	Reasoning            string          `gorm:"type:text" json:"reasoning"`
	FlaggedIssues        []string        `gorm:"serializer:json" json:"flagged_issues"`
	SuggestedActions     []string        `gorm:"serializer:json" json:"suggested_actions"`
	NextSteps            []string        `gorm:"serializer:json" json:"next_steps"`
	Violations           []Violation     `gorm:"serializer:json" json:"violations"`
	AutoApprovable       bool            `gorm:"not null;default:false" json:"auto_approvable"`
	RequiresManualReview bool            `gorm:"not null;default:false" json:"requires_manual_review"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// NewRecommendationRecord flattens a result for storage.
func NewRecommendationRecord(runId string, inv *Invoice, result *ReconciliationResult) *RecommendationRecord {
	rec := &RecommendationRecord{
		RunId:                runId,
		InvoiceNumber:        inv.InvoiceNumber,
		VendorName:           inv.VendorName,
		MatchBasis:           result.Match.MatchBasis,
		MatchPercentage:      result.Match.MatchPercentage,
		Action:               result.Recommendation.Action,
		ConfidenceScore:      result.Recommendation.ConfidenceScore,
		RiskLevel:            result.Recommendation.RiskLevel,
		Reasoning:            result.Recommendation.Reasoning,
		FlaggedIssues:        result.Recommendation.FlaggedIssues,
		SuggestedActions:     result.Recommendation.SuggestedActions,
		NextSteps:            result.Recommendation.NextSteps,
		Violations:           result.Violations,
		AutoApprovable:       result.Recommendation.AutoApprovable,
		RequiresManualReview: result.Recommendation.RequiresManualReview,
	}
	if result.Match.MatchedPo != nil {
		rec.PoNumber = result.Match.MatchedPo.PoNumber
	}
	return rec
}
