package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseOrder struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PoNumber        string          `gorm:"size:100;uniqueIndex;not null" json:"po_number" binding:"required"`
	VendorId        string          `gorm:"size:100;index" json:"vendor_id"`
	VendorName      string          `gorm:"size:100;not null" json:"vendor_name" binding:"required"`
	PoDate          time.Time       `json:"po_date"`
	TotalAuthorized decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_authorized"`
	Currency        string          `gorm:"size:3;default:'USD'" json:"currency"`
	Status          POStatus        `gorm:"type:enum('Active','Closed','Cancelled');not null;default:'Active'" json:"status"`
	LineItems       []POLineItem    `gorm:"foreignKey:PurchaseOrderId" json:"line_items"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type POLineItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId int             `gorm:"index" json:"purchase_order_id"`
	Description     string          `gorm:"size:255;not null" json:"description"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	ProductCode     string          `gorm:"size:100" json:"product_code,omitempty"`
}

// FindLineItem locates a PO line by product code first, then by
// case-insensitive description. Returns nil when nothing matches.
func (po *PurchaseOrder) FindLineItem(description, productCode string) *POLineItem {
	if productCode != "" {
		for i := range po.LineItems {
			if po.LineItems[i].ProductCode != "" && equalFold(po.LineItems[i].ProductCode, productCode) {
				return &po.LineItems[i]
			}
		}
	}
	for i := range po.LineItems {
		if equalFold(po.LineItems[i].Description, description) {
			return &po.LineItems[i]
		}
	}
	return nil
}
