package estimates

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopflow-app/shopflow-backend/internal/notifications"
	"github.com/shopflow-app/shopflow-backend/internal/sequence"
	"github.com/shopflow-app/shopflow-backend/internal/settings"
	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

// approvedIPFallback is stored when the approving client's address could not
// be determined.
const approvedIPFallback = "0.0.0.0"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ratesProvider interface {
	Rates(ctx context.Context) (settings.Rates, error)
}

// Service defines estimate lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Estimate, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	List(ctx context.Context, filters ListFilters) ([]models.Estimate, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Estimate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Send(ctx context.Context, id uuid.UUID) (*models.Estimate, error)
	FindByToken(ctx context.Context, token string) (*models.Estimate, error)
	Approve(ctx context.Context, token, clientIP string) (*ApprovalResult, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	rates      ratesProvider
	dispatcher notifications.Dispatcher
}

// NewService builds an estimate service with the required dependencies.
func NewService(repo Repository, tx txRunner, rates ratesProvider, dispatcher notifications.Dispatcher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("estimates repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if rates == nil {
		return nil, fmt.Errorf("rates provider required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	return &service{repo: repo, tx: tx, rates: rates, dispatcher: dispatcher}, nil
}

// Create opens a draft estimate. The document number, the rate snapshot, the
// priced lines and the derived totals are all written in one transaction.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Estimate, error) {
	rates, err := s.rates.Rates(ctx)
	if err != nil {
		return nil, err
	}

	var created *models.Estimate
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := validateOwnership(ctx, tx, input.CustomerID, input.UnitID); err != nil {
			return err
		}
		number, err := sequence.Next(tx, sequence.PrefixEstimate)
		if err != nil {
			return err
		}
		estimate := &models.Estimate{
			ID:               uuid.New(),
			EstimateNumber:   number,
			CustomerID:       input.CustomerID,
			UnitID:           input.UnitID,
			Status:           enums.EstimateStatusDraft,
			ShopSuppliesRate: rates.ShopSupplies,
			TaxRate:          rates.Tax,
			Notes:            input.Notes,
		}
		lines, err := buildLines(ctx, tx, estimate.ID, input.Lines)
		if err != nil {
			return err
		}
		applyTotals(estimate, lines)

		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Create(ctx, estimate); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create estimate")
		}
		if err := txRepo.ReplaceLines(ctx, estimate.ID, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write estimate lines")
		}
		estimate.Lines = lines
		created = estimate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	estimate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load estimate")
	}
	return estimate, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]models.Estimate, error) {
	estimates, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list estimates")
	}
	return estimates, nil
}

// Update edits an open estimate. When lines are supplied the existing set is
// replaced wholesale and totals re-derive under the estimate's stored rates,
// never the live settings.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Estimate, error) {
	estimate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !estimate.CanEdit() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "estimate can no longer be edited").
			WithDetails(map[string]string{"status": estimate.Status.String()})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.UnitID != nil {
			if err := validateOwnership(ctx, tx, estimate.CustomerID, input.UnitID); err != nil {
				return err
			}
			estimate.UnitID = input.UnitID
		}
		if input.Notes != nil {
			estimate.Notes = input.Notes
		}
		txRepo := s.repo.WithTx(tx)
		if input.Lines != nil {
			lines, err := buildLines(ctx, tx, estimate.ID, *input.Lines)
			if err != nil {
				return err
			}
			if err := txRepo.ReplaceLines(ctx, estimate.ID, lines); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace estimate lines")
			}
			applyTotals(estimate, lines)
			estimate.Lines = lines
		}
		if err := txRepo.Save(ctx, estimate); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update estimate")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return estimate, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	estimate, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !estimate.CanEdit() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "estimate can no longer be deleted").
			WithDetails(map[string]string{"status": estimate.Status.String()})
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete estimate")
		}
		return nil
	})
}

// Send publishes a draft to the customer: the estimate moves to sent,
// receives its public token and the customer is notified. Re-sending an
// already sent estimate returns it unchanged so the share link stays stable
// and nothing is re-delivered.
func (s *service) Send(ctx context.Context, id uuid.UUID) (*models.Estimate, error) {
	estimate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch estimate.Status {
	case enums.EstimateStatusDraft:
		if estimate.Customer == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "estimate customer unavailable")
		}
		token := uuid.NewString()
		estimate.Status = enums.EstimateStatusSent
		estimate.PublicToken = &token
		if err := s.repo.Save(ctx, estimate); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "send estimate")
		}
		if err := s.dispatcher.EstimateSent(ctx, estimate, estimate.Customer); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify customer")
		}
		return estimate, nil
	case enums.EstimateStatusSent:
		return estimate, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "estimate can no longer be sent").
			WithDetails(map[string]string{"status": estimate.Status.String()})
	}
}

// FindByToken resolves the customer share link. Only published documents
// resolve; a stale or guessed token reads as not found.
func (s *service) FindByToken(ctx context.Context, token string) (*models.Estimate, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
	}
	estimate, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load estimate")
	}
	if estimate.Status == enums.EstimateStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "estimate not found")
	}
	return estimate, nil
}

// Approve records the customer's acceptance. Only a sent estimate
// transitions; repeating the call after approval is a no-op that preserves
// the original timestamp and address, reported via AlreadyApproved so the
// caller can tell the replay from the first acceptance.
func (s *service) Approve(ctx context.Context, token, clientIP string) (*ApprovalResult, error) {
	estimate, err := s.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	switch estimate.Status {
	case enums.EstimateStatusSent:
		now := time.Now().UTC()
		ip := strings.TrimSpace(clientIP)
		if ip == "" {
			ip = approvedIPFallback
		}
		estimate.Status = enums.EstimateStatusApproved
		estimate.ApprovedAt = &now
		estimate.ApprovedIP = &ip
		if err := s.repo.Save(ctx, estimate); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve estimate")
		}
		return &ApprovalResult{Estimate: estimate}, nil
	case enums.EstimateStatusApproved, enums.EstimateStatusInvoiced:
		return &ApprovalResult{Estimate: estimate, AlreadyApproved: true}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "estimate cannot be approved").
			WithDetails(map[string]string{"status": estimate.Status.String()})
	}
}

func validateOwnership(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, unitID *uuid.UUID) error {
	var customer models.Customer
	err := tx.WithContext(ctx).Where("id = ?", customerID).First(&customer).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	if unitID == nil {
		return nil
	}
	var unit models.Unit
	err = tx.WithContext(ctx).Where("id = ?", *unitID).First(&unit).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load unit")
	}
	if unit.CustomerID != customerID {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit belongs to a different customer")
	}
	return nil
}

// buildLines prices the requested lines against the catalog. Description and
// unit price are snapshotted onto each line; sort order follows request
// order.
func buildLines(ctx context.Context, tx *gorm.DB, estimateID uuid.UUID, inputs []LineInput) ([]models.EstimateLine, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimate needs at least one line")
	}
	lines := make([]models.EstimateLine, 0, len(inputs))
	for i, input := range inputs {
		itemType, err := enums.ParseLineItemType(input.ItemType)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown line item type").
				WithDetails(map[string]any{"index": i, "item_type": input.ItemType})
		}
		itemID, err := uuid.Parse(input.ItemID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item_id must be a uuid").
				WithDetails(map[string]any{"index": i})
		}
		if input.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"index": i})
		}

		description, catalogPrice, err := resolveCatalogItem(ctx, tx, itemType, itemID)
		if err != nil {
			return nil, err
		}
		unitPrice := catalogPrice
		if input.UnitPrice != nil {
			override, err := money.Parse(*input.UnitPrice)
			if err != nil || override.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price must be a non-negative decimal string").
					WithDetails(map[string]any{"index": i})
			}
			unitPrice = money.Round2(override)
		}
		if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
			description = strings.TrimSpace(*input.Description)
		}

		lines = append(lines, models.EstimateLine{
			ID:          uuid.New(),
			EstimateID:  estimateID,
			ItemType:    itemType,
			ItemID:      itemID,
			Description: description,
			Quantity:    input.Quantity,
			UnitPrice:   unitPrice,
			LineTotal:   LineTotal(input.Quantity, unitPrice),
			SortOrder:   i,
		})
	}
	return lines, nil
}

func resolveCatalogItem(ctx context.Context, tx *gorm.DB, itemType enums.LineItemType, itemID uuid.UUID) (string, decimal.Decimal, error) {
	switch itemType {
	case enums.LineItemTypePart:
		var part models.Part
		err := tx.WithContext(ctx).Where("id = ?", itemID).First(&part).Error
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return "", decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "part not found").
					WithDetails(map[string]string{"item_id": itemID.String()})
			}
			return "", decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load part")
		}
		return part.Name, part.SalePrice, nil
	case enums.LineItemTypeLaborService:
		var labor models.LaborService
		err := tx.WithContext(ctx).Where("id = ?", itemID).First(&labor).Error
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return "", decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "labor service not found").
					WithDetails(map[string]string{"item_id": itemID.String()})
			}
			return "", decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load labor service")
		}
		return labor.Name, labor.DefaultPrice, nil
	default:
		return "", decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown line item type")
	}
}

func applyTotals(estimate *models.Estimate, lines []models.EstimateLine) {
	totals := CalculateTotals(lines, estimate.ShopSuppliesRate, estimate.TaxRate)
	estimate.SubtotalParts = totals.SubtotalParts
	estimate.SubtotalLabor = totals.SubtotalLabor
	estimate.ShopSuppliesAmount = totals.ShopSuppliesAmount
	estimate.TaxAmount = totals.TaxAmount
	estimate.Total = totals.Total
}
