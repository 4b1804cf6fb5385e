// seed-demo loads a small set of vendors and purchase orders so the
// reconcile endpoint can be exercised without a snapshot in every request.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/payables_backend/config"
	"bitbucket.org/mmdatafocus/payables_backend/models"
	"bitbucket.org/mmdatafocus/payables_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	vendors := []models.Vendor{
		{
			VendorId:     "V-1001",
			Name:         "Acme Office Supplies",
			Status:       models.VendorStatusActive,
			Authorized:   utils.NewTrue(),
			InvoiceLimit: decimal.NewFromInt(10000),
			Currency:     "USD",
			PaymentTerms: models.PaymentTermsNet30,
		},
		{
			VendorId:     "V-1002",
			Name:         "Globex Industrial",
			Status:       models.VendorStatusActive,
			Authorized:   utils.NewTrue(),
			InvoiceLimit: decimal.NewFromInt(50000),
			Currency:     "USD",
			PaymentTerms: models.PaymentTermsNet45,
		},
		{
			VendorId:     "V-1003",
			Name:         "Initech Consulting",
			Status:       models.VendorStatusSuspended,
			Authorized:   utils.NewFalse(),
			InvoiceLimit: decimal.NewFromInt(5000),
			Currency:     "USD",
			PaymentTerms: models.PaymentTermsDueOnReceipt,
		},
	}

	pos := []models.PurchaseOrder{
		{
			PoNumber:        "PO-2024-0001",
			VendorId:        "V-1001",
			VendorName:      "Acme Office Supplies",
			PoDate:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			TotalAuthorized: decimal.RequireFromString("2500.00"),
			Currency:        "USD",
			Status:          models.POStatusActive,
			LineItems: []models.POLineItem{
				{Description: "A4 paper, 500 sheets", Quantity: decimal.NewFromInt(100), UnitPrice: decimal.RequireFromString("12.50"), TotalAmount: decimal.RequireFromString("1250.00"), ProductCode: "PAP-A4"},
				{Description: "Toner cartridge", Quantity: decimal.NewFromInt(25), UnitPrice: decimal.RequireFromString("50.00"), TotalAmount: decimal.RequireFromString("1250.00"), ProductCode: "TON-05"},
			},
		},
		{
			PoNumber:        "PO-2024-0002",
			VendorId:        "V-1002",
			VendorName:      "Globex Industrial",
			PoDate:          time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			TotalAuthorized: decimal.RequireFromString("18000.00"),
			Currency:        "USD",
			Status:          models.POStatusActive,
		},
		{
			PoNumber:        "PO-2023-0099",
			VendorId:        "V-1001",
			VendorName:      "Acme Office Supplies",
			PoDate:          time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC),
			TotalAuthorized: decimal.RequireFromString("800.00"),
			Currency:        "USD",
			Status:          models.POStatusClosed,
		},
	}

	for _, vendor := range vendors {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vendor_id"}},
			UpdateAll: true,
		}).Create(&vendor).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "seeding vendor %s: %v\n", vendor.VendorId, err)
			os.Exit(1)
		}
	}
	for _, po := range pos {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "po_number"}},
			UpdateAll: true,
		}).Create(&po).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "seeding purchase order %s: %v\n", po.PoNumber, err)
			os.Exit(1)
		}
	}

	fmt.Printf("seeded %d vendors and %d purchase orders\n", len(vendors), len(pos))
}
