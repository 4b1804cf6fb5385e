package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Invoice struct {
	ID                   int               `gorm:"primary_key" json:"id"`
	InvoiceNumber        string            `gorm:"size:100;index;not null" json:"invoice_number" binding:"required"`
	VendorId             string            `gorm:"size:100;index" json:"vendor_id"`
	VendorName           string            `gorm:"size:100;not null" json:"vendor_name" binding:"required"`
	InvoiceDate          time.Time         `json:"invoice_date"`
	DueDate              time.Time         `json:"due_date"`
	SubtotalAmount       decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"subtotal_amount"`
	TaxAmount            decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	TotalAmount          decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Currency             string            `gorm:"size:3;default:'USD'" json:"currency"`
	PoReference          string            `gorm:"size:100" json:"po_reference"`
	LineItems            []InvoiceLineItem `gorm:"foreignKey:InvoiceId" json:"line_items"`
	ExtractionConfidence *float64          `json:"extraction_confidence,omitempty"`
	SourceFile           string            `gorm:"size:255" json:"source_file,omitempty"`
	CreatedAt            time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceLineItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"index" json:"invoice_id"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	ProductCode string          `gorm:"size:100" json:"product_code,omitempty"`
	Category    string          `gorm:"size:100" json:"category,omitempty"`
}

// ComputedTotal is quantity * unit price before any rounding tolerance is applied.
// Whether it agrees with the stated TotalAmount is a rule-checkable fact, never
// an assumption.
func (item InvoiceLineItem) ComputedTotal() decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice)
}

// Total returns the invoice total as currency-tagged money.
func (inv *Invoice) Total() Money {
	return NewMoney(inv.TotalAmount, inv.Currency)
}

// LineItemSum adds up the stated line totals.
func (inv *Invoice) LineItemSum() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range inv.LineItems {
		sum = sum.Add(item.TotalAmount)
	}
	return sum
}
