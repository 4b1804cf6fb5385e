package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Vendor struct {
	ID                     int             `gorm:"primary_key" json:"id"`
	VendorId               string          `gorm:"size:100;uniqueIndex;not null" json:"vendor_id" binding:"required"`
	Name                   string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Status                 VendorStatus    `gorm:"type:enum('Active','Suspended','Blacklisted');not null;default:'Active'" json:"status"`
	Authorized             *bool           `gorm:"not null;default:true" json:"authorized"`
	InvoiceLimit           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"invoice_limit"`
	Currency               string          `gorm:"size:3;default:'USD'" json:"currency"`
	PaymentTerms           PaymentTerms    `gorm:"type:enum('Net15','Net30','Net45','Net60','DueMonthEnd','DueOnReceipt','Custom');not null;default:'DueOnReceipt'" json:"payment_terms"`
	PaymentTermsCustomDays int             `gorm:"default:0" json:"payment_terms_custom_days"`
	CreatedAt              time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsAuthorized is true only for active vendors with the authorized flag set.
func (v *Vendor) IsAuthorized() bool {
	return v.Status == VendorStatusActive && v.Authorized != nil && *v.Authorized
}

// HasInvoiceLimit reports whether a positive per-invoice cap is configured.
func (v *Vendor) HasInvoiceLimit() bool {
	return v.InvoiceLimit.IsPositive()
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
