package invoices

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

// StockWarning flags a part line whose on-hand stock could not cover the
// requested quantity. Conversion still proceeds; the warning is advisory.
type StockWarning struct {
	PartID    uuid.UUID `json:"part_id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// ConversionResult pairs the created invoice with any stock warnings raised
// while deducting parts.
type ConversionResult struct {
	Invoice  *models.Invoice
	Warnings []StockWarning
}

// MonthlySummary reports the issued invoices and collected revenue for the
// current calendar month.
type MonthlySummary struct {
	InvoiceCount int64  `json:"invoice_count"`
	Revenue      string `json:"revenue"`
}

// View is the wire shape of an invoice. Money fields are fixed two-decimal
// strings, rates fixed four-decimal strings.
type View struct {
	ID                 uuid.UUID  `json:"id"`
	InvoiceNumber      string     `json:"invoice_number"`
	EstimateID         uuid.UUID  `json:"estimate_id"`
	EstimateNumber     string     `json:"estimate_number,omitempty"`
	IssuedAt           time.Time  `json:"issued_at"`
	SubtotalParts      string     `json:"subtotal_parts"`
	SubtotalLabor      string     `json:"subtotal_labor"`
	ShopSuppliesRate   string     `json:"shop_supplies_rate"`
	ShopSuppliesAmount string     `json:"shop_supplies_amount"`
	TaxRate            string     `json:"tax_rate"`
	TaxAmount          string     `json:"tax_amount"`
	Total              string     `json:"total"`
	NotifiedAt         *time.Time `json:"notified_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// NewView maps a loaded invoice onto its wire shape.
func NewView(invoice *models.Invoice) View {
	view := View{
		ID:                 invoice.ID,
		InvoiceNumber:      invoice.InvoiceNumber,
		EstimateID:         invoice.EstimateID,
		IssuedAt:           invoice.IssuedAt,
		SubtotalParts:      money.String2(invoice.SubtotalParts),
		SubtotalLabor:      money.String2(invoice.SubtotalLabor),
		ShopSuppliesRate:   money.String4(invoice.ShopSuppliesRate),
		ShopSuppliesAmount: money.String2(invoice.ShopSuppliesAmount),
		TaxRate:            money.String4(invoice.TaxRate),
		TaxAmount:          money.String2(invoice.TaxAmount),
		Total:              money.String2(invoice.Total),
		NotifiedAt:         invoice.NotifiedAt,
		CreatedAt:          invoice.CreatedAt,
	}
	if invoice.Estimate != nil {
		view.EstimateNumber = invoice.Estimate.EstimateNumber
	}
	return view
}
