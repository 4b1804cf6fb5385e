package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/payables_backend/models"
	"github.com/shopspring/decimal"
)

// The normalizer canonicalizes loosely-typed extracted records into strict
// model values. It is total for semantically-odd input: negative amounts and
// implausible values pass through untouched; only structural problems
// (missing required fields, unparsable types) fail, and they fail with a
// MalformedRecordError naming the field. No I/O happens here.

// dateFormats is the fixed allow-list for date parsing. Anything else fails.
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"January 2, 2006",
}

// NormalizeInvoice builds a canonical Invoice from an extracted record.
func NormalizeInvoice(raw map[string]any) (*models.Invoice, error) {
	const record = "invoice"
	invoiceNumber, err := requiredString(record, raw, "invoice_number")
	if err != nil {
		return nil, err
	}
	vendorName, err := requiredString(record, raw, "vendor_name")
	if err != nil {
		return nil, err
	}
	totalAmount, err := requiredAmount(record, raw, "total_amount")
	if err != nil {
		return nil, err
	}
	subtotal, err := optionalAmount(record, raw, "subtotal_amount")
	if err != nil {
		return nil, err
	}
	tax, err := optionalAmount(record, raw, "tax_amount")
	if err != nil {
		return nil, err
	}
	invoiceDate, err := requiredDate(record, raw, "invoice_date")
	if err != nil {
		return nil, err
	}
	dueDate, err := optionalDate(record, raw, "due_date")
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		InvoiceNumber:  invoiceNumber,
		VendorId:       optionalString(raw, "vendor_id"),
		VendorName:     vendorName,
		InvoiceDate:    invoiceDate,
		DueDate:        dueDate,
		SubtotalAmount: subtotal,
		TaxAmount:      tax,
		TotalAmount:    totalAmount,
		Currency:       currencyOrDefault(raw),
		PoReference:    optionalString(raw, "po_reference"),
		SourceFile:     optionalString(raw, "source_file"),
	}
	if conf, ok := floatValue(raw["extraction_confidence"]); ok {
		inv.ExtractionConfidence = &conf
	}

	items, err := normalizeLineItems(record, raw["line_items"])
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		inv.LineItems = append(inv.LineItems, models.InvoiceLineItem{
			Description: item.description,
			Quantity:    item.quantity,
			UnitPrice:   item.unitPrice,
			TotalAmount: item.totalAmount,
			ProductCode: item.productCode,
			Category:    item.category,
		})
	}
	return inv, nil
}

// NormalizePurchaseOrder builds a canonical PurchaseOrder from a stored or
// extracted record.
func NormalizePurchaseOrder(raw map[string]any) (*models.PurchaseOrder, error) {
	const record = "purchase order"
	poNumber, err := requiredString(record, raw, "po_number")
	if err != nil {
		return nil, err
	}
	vendorName, err := requiredString(record, raw, "vendor_name")
	if err != nil {
		return nil, err
	}
	totalAuthorized, err := requiredAmount(record, raw, "total_authorized")
	if err != nil {
		return nil, err
	}
	poDate, err := optionalDate(record, raw, "po_date")
	if err != nil {
		return nil, err
	}

	status := models.POStatusActive
	if str := optionalString(raw, "status"); str != "" {
		status, err = models.ParsePOStatus(str)
		if err != nil {
			return nil, malformed(record, "status", fmt.Sprintf("has unrecognized value %q", str))
		}
	}

	po := &models.PurchaseOrder{
		PoNumber:        poNumber,
		VendorId:        optionalString(raw, "vendor_id"),
		VendorName:      vendorName,
		PoDate:          poDate,
		TotalAuthorized: totalAuthorized,
		Currency:        currencyOrDefault(raw),
		Status:          status,
	}

	items, err := normalizeLineItems(record, raw["line_items"])
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		po.LineItems = append(po.LineItems, models.POLineItem{
			Description: item.description,
			Quantity:    item.quantity,
			UnitPrice:   item.unitPrice,
			TotalAmount: item.totalAmount,
			ProductCode: item.productCode,
		})
	}
	return po, nil
}

// NormalizeVendor builds a canonical Vendor from a stored record.
func NormalizeVendor(raw map[string]any) (*models.Vendor, error) {
	const record = "vendor"
	vendorId, err := requiredString(record, raw, "vendor_id")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(record, raw, "name")
	if err != nil {
		return nil, err
	}

	status := models.VendorStatusActive
	if str := optionalString(raw, "status"); str != "" {
		status, err = models.ParseVendorStatus(str)
		if err != nil {
			return nil, malformed(record, "status", fmt.Sprintf("has unrecognized value %q", str))
		}
	}
	limit, err := optionalAmount(record, raw, "invoice_limit")
	if err != nil {
		return nil, err
	}

	authorized := true
	if v, ok := raw["authorized"].(bool); ok {
		authorized = v
	}
	terms := models.PaymentTermsDueOnReceipt
	if str := optionalString(raw, "payment_terms"); str != "" {
		terms = models.PaymentTerms(str)
	}

	return &models.Vendor{
		VendorId:     vendorId,
		Name:         name,
		Status:       status,
		Authorized:   &authorized,
		InvoiceLimit: limit,
		Currency:     currencyOrDefault(raw),
		PaymentTerms: terms,
	}, nil
}

type normalizedLineItem struct {
	description string
	quantity    decimal.Decimal
	unitPrice   decimal.Decimal
	totalAmount decimal.Decimal
	productCode string
	category    string
}

func normalizeLineItems(record string, raw any) ([]normalizedLineItem, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, malformed(record, "line_items", "is not a list")
	}
	items := make([]normalizedLineItem, 0, len(entries))
	for i, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, malformed(record, fmt.Sprintf("line_items[%d]", i), "is not an object")
		}
		description, err := requiredStringAt(record, fields, fmt.Sprintf("line_items[%d].description", i), "description")
		if err != nil {
			return nil, err
		}
		quantity, err := optionalAmountNamed(record, fields, fmt.Sprintf("line_items[%d].quantity", i), "quantity")
		if err != nil {
			return nil, err
		}
		unitPrice, err := optionalAmountNamed(record, fields, fmt.Sprintf("line_items[%d].unit_price", i), "unit_price")
		if err != nil {
			return nil, err
		}
		totalAmount, err := optionalAmountNamed(record, fields, fmt.Sprintf("line_items[%d].total_amount", i), "total_amount")
		if err != nil {
			return nil, err
		}
		items = append(items, normalizedLineItem{
			description: description,
			quantity:    quantity,
			unitPrice:   unitPrice,
			totalAmount: totalAmount,
			productCode: optionalString(fields, "product_code"),
			category:    optionalString(fields, "category"),
		})
	}
	return items, nil
}

// amountReplacer strips currency symbols and grouping separators before
// decimal parsing. "$1,234.50" and "1 234.50 USD" both normalize cleanly.
var amountReplacer = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", ",", "", " ", "",
)

// ParseAmount converts any extraction-produced scalar into a decimal without
// ever touching binary floating point for string inputs.
func ParseAmount(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		cleaned := amountReplacer.Replace(strings.TrimSpace(v))
		for _, code := range []string{"USD", "EUR", "GBP", "JPY", "MMK"} {
			cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, code), code)
		}
		if cleaned == "" {
			return decimal.Zero, fmt.Errorf("empty amount")
		}
		return decimal.NewFromString(cleaned)
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	return decimal.Zero, fmt.Errorf("unsupported amount type %T", value)
}

// ParseDate accepts only the allow-listed formats.
func ParseDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		str := strings.TrimSpace(v)
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, str); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date format %q", v)
	}
	return time.Time{}, fmt.Errorf("unsupported date type %T", value)
}

func requiredString(record string, raw map[string]any, key string) (string, error) {
	return requiredStringAt(record, raw, key, key)
}

func requiredStringAt(record string, raw map[string]any, label, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", malformed(record, label, "is missing")
	}
	str, ok := v.(string)
	if !ok {
		return "", malformed(record, label, fmt.Sprintf("has unparsable type %T", v))
	}
	str = strings.TrimSpace(str)
	if str == "" {
		return "", malformed(record, label, "is empty")
	}
	return str, nil
}

func optionalString(raw map[string]any, key string) string {
	if str, ok := raw[key].(string); ok {
		return strings.TrimSpace(str)
	}
	return ""
}

func requiredAmount(record string, raw map[string]any, key string) (decimal.Decimal, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return decimal.Zero, malformed(record, key, "is missing")
	}
	amount, err := ParseAmount(v)
	if err != nil {
		return decimal.Zero, malformed(record, key, fmt.Sprintf("is unparsable: %v", err))
	}
	return amount, nil
}

func optionalAmount(record string, raw map[string]any, key string) (decimal.Decimal, error) {
	return optionalAmountNamed(record, raw, key, key)
}

func optionalAmountNamed(record string, raw map[string]any, label, key string) (decimal.Decimal, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return decimal.Zero, nil
	}
	amount, err := ParseAmount(v)
	if err != nil {
		return decimal.Zero, malformed(record, label, fmt.Sprintf("is unparsable: %v", err))
	}
	return amount, nil
}

func requiredDate(record string, raw map[string]any, key string) (time.Time, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return time.Time{}, malformed(record, key, "is missing")
	}
	t, err := ParseDate(v)
	if err != nil {
		return time.Time{}, malformed(record, key, fmt.Sprintf("is unparsable: %v", err))
	}
	return t, nil
}

func optionalDate(record string, raw map[string]any, key string) (time.Time, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	t, err := ParseDate(v)
	if err != nil {
		return time.Time{}, malformed(record, key, fmt.Sprintf("is unparsable: %v", err))
	}
	return t, nil
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	}
	return 0, false
}

func currencyOrDefault(raw map[string]any) string {
	if c := strings.ToUpper(optionalString(raw, "currency")); c != "" {
		return c
	}
	return "USD"
}
