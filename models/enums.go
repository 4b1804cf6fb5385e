package models

import (
	"errors"
	"strings"
)

type POStatus string

const (
	POStatusActive    POStatus = "Active"
	POStatusClosed    POStatus = "Closed"
	POStatusCancelled POStatus = "Cancelled"
)

func (s POStatus) IsValid() bool {
	switch s {
	case POStatusActive, POStatusClosed, POStatusCancelled:
		return true
	}
	return false
}

// ParsePOStatus accepts the loosely-cased status strings extraction produces.
func ParsePOStatus(str string) (POStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(str)) {
	case "ACTIVE", "OPEN":
		return POStatusActive, nil
	case "CLOSED":
		return POStatusClosed, nil
	case "CANCELLED", "CANCELED":
		return POStatusCancelled, nil
	}
	return "", errors.New("invalid purchase order status")
}

type VendorStatus string

const (
	VendorStatusActive      VendorStatus = "Active"
	VendorStatusSuspended   VendorStatus = "Suspended"
	VendorStatusBlacklisted VendorStatus = "Blacklisted"
)

func (s VendorStatus) IsValid() bool {
	switch s {
	case VendorStatusActive, VendorStatusSuspended, VendorStatusBlacklisted:
		return true
	}
	return false
}

func ParseVendorStatus(str string) (VendorStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(str)) {
	case "ACTIVE":
		return VendorStatusActive, nil
	case "SUSPENDED":
		return VendorStatusSuspended, nil
	case "BLACKLISTED":
		return VendorStatusBlacklisted, nil
	}
	return "", errors.New("invalid vendor status")
}

type PaymentTerms string

const (
	PaymentTermsNet15        PaymentTerms = "Net15"
	PaymentTermsNet30        PaymentTerms = "Net30"
	PaymentTermsNet45        PaymentTerms = "Net45"
	PaymentTermsNet60        PaymentTerms = "Net60"
	PaymentTermsDueMonthEnd  PaymentTerms = "DueMonthEnd"
	PaymentTermsDueOnReceipt PaymentTerms = "DueOnReceipt"
	PaymentTermsCustom       PaymentTerms = "Custom"
)

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

type ActionType string

const (
	ActionApprove      ActionType = "APPROVE"
	ActionReject       ActionType = "REJECT"
	ActionHold         ActionType = "HOLD"
	ActionManualReview ActionType = "MANUAL_REVIEW"
)

type MatchBasis string

const (
	MatchBasisExactReference MatchBasis = "exact_reference"
	MatchBasisFuzzy          MatchBasis = "fuzzy"
	MatchBasisNone           MatchBasis = "none"
)

type ViolationCode string

const (
	ViolationPONotFound            ViolationCode = "PO_NOT_FOUND"
	ViolationPONotActive           ViolationCode = "PO_NOT_ACTIVE"
	ViolationInvalidPOAmount       ViolationCode = "INVALID_PO_AMOUNT"
	ViolationAmountOverage         ViolationCode = "AMOUNT_OVERAGE"
	ViolationVendorRecordMissing   ViolationCode = "VENDOR_RECORD_MISSING"
	ViolationVendorNotAuthorized   ViolationCode = "VENDOR_NOT_AUTHORIZED"
	ViolationVendorSuspended       ViolationCode = "VENDOR_SUSPENDED"
	ViolationVendorBlacklisted     ViolationCode = "VENDOR_BLACKLISTED"
	ViolationVendorLimitExceeded   ViolationCode = "VENDOR_LIMIT_EXCEEDED"
	ViolationLineItemTotalMismatch ViolationCode = "LINE_ITEM_TOTAL_MISMATCH"
	ViolationLineItemNotInPO       ViolationCode = "LINE_ITEM_NOT_IN_PO"
	ViolationLineItemQtyMismatch   ViolationCode = "LINE_ITEM_QTY_MISMATCH"
	ViolationLineItemPriceMismatch ViolationCode = "LINE_ITEM_PRICE_MISMATCH"
	ViolationSubtotalTaxMismatch   ViolationCode = "SUBTOTAL_TAX_MISMATCH"
	ViolationTaxRateExceeded       ViolationCode = "TAX_RATE_EXCEEDED"
	ViolationFutureInvoiceDate     ViolationCode = "FUTURE_INVOICE_DATE"
	ViolationThresholdBand         ViolationCode = "THRESHOLD_BAND"
)
