package estimates

import (
	"github.com/shopspring/decimal"

	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

// Totals is the derived money block stored on every estimate and frozen onto
// its invoice.
type Totals struct {
	SubtotalParts      decimal.Decimal
	SubtotalLabor      decimal.Decimal
	ShopSuppliesAmount decimal.Decimal
	TaxAmount          decimal.Decimal
	Total              decimal.Decimal
}

// CalculateTotals derives the money block from priced lines and the rates
// snapshotted on the estimate. Every intermediate is rounded to cents before
// it feeds the next step, so the stored fields always re-derive exactly.
// Shop supplies apply to labor only; tax applies to parts, labor and
// supplies.
func CalculateTotals(lines []models.EstimateLine, suppliesRate, taxRate decimal.Decimal) Totals {
	parts := money.Zero
	lab := money.Zero
	for _, line := range lines {
		switch line.ItemType {
		case enums.LineItemTypePart:
			parts = money.Add(parts, line.LineTotal, money.ScaleCurrency)
		case enums.LineItemTypeLaborService:
			lab = money.Add(lab, line.LineTotal, money.ScaleCurrency)
		}
	}

	supplies := money.Mul(lab, suppliesRate, money.ScaleCurrency)
	taxable := money.Add(money.Add(parts, lab, money.ScaleCurrency), supplies, money.ScaleCurrency)
	tax := money.Mul(taxable, taxRate, money.ScaleCurrency)
	total := money.Add(taxable, tax, money.ScaleCurrency)

	return Totals{
		SubtotalParts:      parts,
		SubtotalLabor:      lab,
		ShopSuppliesAmount: supplies,
		TaxAmount:          tax,
		Total:              total,
	}
}

// LineTotal prices one line: quantity times unit price, rounded to cents.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return money.Mul(decimal.NewFromInt(int64(quantity)), unitPrice, money.ScaleCurrency)
}
