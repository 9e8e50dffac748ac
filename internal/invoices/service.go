// Package invoices converts approved estimates into frozen invoices and runs
// the pickup notification flow.
package invoices

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopflow-app/shopflow-backend/internal/notifications"
	"github.com/shopflow-app/shopflow-backend/internal/sequence"
	"github.com/shopflow-app/shopflow-backend/pkg/db"
	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines invoice operations.
type Service interface {
	Convert(ctx context.Context, estimateID uuid.UUID) (*ConversionResult, error)
	StockWarnings(ctx context.Context, estimateID uuid.UUID) ([]StockWarning, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context) ([]models.Invoice, error)
	MonthSummary(ctx context.Context, now time.Time) (MonthlySummary, error)
	Notify(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
}

type service struct {
	db         *gorm.DB
	tx         txRunner
	dispatcher notifications.Dispatcher

	// afterDeduct runs between the stock deductions and the status flip.
	// Tests hook it to force a mid-pipeline failure.
	afterDeduct func(tx *gorm.DB) error
}

// NewService builds an invoice service with the required dependencies.
func NewService(gdb *gorm.DB, tx txRunner, dispatcher notifications.Dispatcher) (Service, error) {
	if gdb == nil {
		return nil, fmt.Errorf("invoices db required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	return &service{db: gdb, tx: tx, dispatcher: dispatcher}, nil
}

// Convert turns an approved estimate into an invoice: number allocation, the
// money snapshot, part stock deduction and the status flip to invoiced commit
// or roll back as one unit. Insufficient stock never blocks conversion; it is
// reported back as warnings while stock goes negative.
func (s *service) Convert(ctx context.Context, estimateID uuid.UUID) (*ConversionResult, error) {
	var result *ConversionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var estimate models.Estimate
		err := tx.WithContext(ctx).
			Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
			Where("id = ?", estimateID).
			First(&estimate).Error
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load estimate")
		}

		switch estimate.Status {
		case enums.EstimateStatusApproved:
		case enums.EstimateStatusInvoiced:
			return pkgerrors.New(pkgerrors.CodeConflict, "estimate already invoiced")
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only approved estimates can be invoiced").
				WithDetails(map[string]string{"status": estimate.Status.String()})
		}

		number, err := sequence.Next(tx, sequence.PrefixInvoice)
		if err != nil {
			return err
		}
		invoice := &models.Invoice{
			ID:                 uuid.New(),
			InvoiceNumber:      number,
			EstimateID:         estimate.ID,
			IssuedAt:           time.Now().UTC(),
			SubtotalParts:      estimate.SubtotalParts,
			SubtotalLabor:      estimate.SubtotalLabor,
			ShopSuppliesRate:   estimate.ShopSuppliesRate,
			ShopSuppliesAmount: estimate.ShopSuppliesAmount,
			TaxRate:            estimate.TaxRate,
			TaxAmount:          estimate.TaxAmount,
			Total:              estimate.Total,
		}
		if err := tx.WithContext(ctx).Create(invoice).Error; err != nil {
			// The unique index on estimate_id closes the race between two
			// concurrent conversions of the same estimate.
			if db.IsUniqueViolation(err, "estimate_id") {
				return pkgerrors.New(pkgerrors.CodeConflict, "estimate already invoiced")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invoice")
		}

		warnings, err := deductStock(ctx, tx, estimate.Lines)
		if err != nil {
			return err
		}
		if s.afterDeduct != nil {
			if err := s.afterDeduct(tx); err != nil {
				return err
			}
		}

		estimate.Status = enums.EstimateStatusInvoiced
		if err := tx.WithContext(ctx).Omit(clause.Associations).Save(&estimate).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark estimate invoiced")
		}

		result = &ConversionResult{Invoice: invoice, Warnings: warnings}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StockWarnings previews the shortfalls a conversion would raise right now,
// without deducting anything.
func (s *service) StockWarnings(ctx context.Context, estimateID uuid.UUID) ([]StockWarning, error) {
	var lines []models.EstimateLine
	err := s.db.WithContext(ctx).
		Where("estimate_id = ? AND item_type = ?", estimateID, enums.LineItemTypePart).
		Order("sort_order ASC").
		Find(&lines).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load estimate lines")
	}

	warnings := make([]StockWarning, 0)
	for _, line := range lines {
		var part models.Part
		if err := s.db.WithContext(ctx).Where("id = ?", line.ItemID).First(&part).Error; err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load part")
		}
		if part.Stock < line.Quantity {
			warnings = append(warnings, StockWarning{
				PartID:    part.ID,
				Name:      part.Name,
				SKU:       part.SKU,
				Requested: line.Quantity,
				Available: part.Stock,
			})
		}
	}
	return warnings, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Estimate").
		Preload("Estimate.Customer").
		Preload("Estimate.Unit").
		Preload("Estimate.Lines", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load invoice")
	}
	return &invoice, nil
}

func (s *service) List(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Estimate").
		Order("issued_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list invoices")
	}
	return invoices, nil
}

// MonthSummary counts invoices issued in now's calendar month and sums their
// totals with exact decimal arithmetic.
func (s *service) MonthSummary(ctx context.Context, now time.Time) (MonthlySummary, error) {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Select("total").
		Where("issued_at >= ? AND issued_at < ?", monthStart, monthStart.AddDate(0, 1, 0)).
		Find(&invoices).Error
	if err != nil {
		return MonthlySummary{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summarize invoices")
	}

	revenue := decimal.Zero
	for _, invoice := range invoices {
		revenue = money.Add(revenue, invoice.Total, money.ScaleCurrency)
	}
	return MonthlySummary{
		InvoiceCount: int64(len(invoices)),
		Revenue:      money.String2(revenue),
	}, nil
}

// Notify sends the ready-for-pickup message once. The notified_at stamp is
// claimed with a guarded update before dispatching, so concurrent calls
// cannot deliver the message twice; repeat calls return the invoice unchanged.
func (s *service) Notify(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.WasNotified() {
		return invoice, nil
	}
	if invoice.Estimate == nil || invoice.Estimate.Customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice customer unavailable")
	}

	now := time.Now().UTC()
	claim := s.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND notified_at IS NULL", invoice.ID).
		Update("notified_at", now)
	if claim.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, claim.Error, "record notification")
	}
	if claim.RowsAffected == 0 {
		// Another caller claimed the stamp first.
		return s.Get(ctx, id)
	}

	if err := s.dispatcher.InvoiceReady(ctx, invoice, invoice.Estimate.Customer); err != nil {
		releaseErr := s.db.WithContext(ctx).
			Model(&models.Invoice{}).
			Where("id = ?", invoice.ID).
			Update("notified_at", nil).Error
		if releaseErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, releaseErr, "release notification claim")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dispatch pickup notification")
	}

	invoice.NotifiedAt = &now
	return invoice, nil
}

// deductStock removes each part line's quantity in a single atomic update per
// line and reports lines whose pre-deduction stock was short.
func deductStock(ctx context.Context, tx *gorm.DB, lines []models.EstimateLine) ([]StockWarning, error) {
	warnings := make([]StockWarning, 0)
	for _, line := range lines {
		if line.ItemType != enums.LineItemTypePart {
			continue
		}
		var after struct {
			Stock int
			Name  string
			SKU   string
		}
		err := tx.WithContext(ctx).Raw(
			`UPDATE parts SET stock = stock - ? WHERE id = ? RETURNING stock, name, sku`,
			line.Quantity, line.ItemID,
		).Scan(&after).Error
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deduct part stock")
		}
		if after.Stock < 0 {
			warnings = append(warnings, StockWarning{
				PartID:    line.ItemID,
				Name:      after.Name,
				SKU:       after.SKU,
				Requested: line.Quantity,
				Available: after.Stock + line.Quantity,
			})
		}
	}
	return warnings, nil
}
