// Package parts manages the stocked parts catalog. Stock is a signed counter:
// invoice conversion may drive it negative, and the low-stock report is how
// the shop finds parts to reorder.
package parts

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopflow-app/shopflow-backend/pkg/db"
	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

// CreateInput carries the fields accepted when adding a part.
type CreateInput struct {
	SKU         string  `json:"sku" validate:"required,max=50"`
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description"`
	Cost        string  `json:"cost" validate:"required"`
	SalePrice   string  `json:"sale_price" validate:"required"`
	Stock       int     `json:"stock"`
	MinStock    int     `json:"min_stock" validate:"gte=0"`
}

// UpdateInput carries a partial part update. SKU is immutable after creation.
type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Description *string `json:"description"`
	Cost        *string `json:"cost"`
	SalePrice   *string `json:"sale_price"`
	Stock       *int    `json:"stock"`
	MinStock    *int    `json:"min_stock" validate:"omitempty,gte=0"`
}

// ListFilters narrows the parts list.
type ListFilters struct {
	Query   string
	LowOnly bool
}

// Service defines parts catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Part, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Part, error)
	List(ctx context.Context, filters ListFilters) ([]models.Part, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Part, error)
	Delete(ctx context.Context, id uuid.UUID) error
	LowStock(ctx context.Context) ([]models.Part, error)
}

type service struct {
	db *gorm.DB
}

// NewService builds a parts service bound to the provided DB.
func NewService(gdb *gorm.DB) (Service, error) {
	if gdb == nil {
		return nil, fmt.Errorf("parts db required")
	}
	return &service{db: gdb}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Part, error) {
	cost, salePrice, err := parsePrices(input.Cost, input.SalePrice)
	if err != nil {
		return nil, err
	}
	part := &models.Part{
		ID:          uuid.New(),
		SKU:         normalizeSKU(input.SKU),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Cost:        cost,
		SalePrice:   salePrice,
		Stock:       input.Stock,
		MinStock:    input.MinStock,
	}
	if err := s.db.WithContext(ctx).Create(part).Error; err != nil {
		if db.IsUniqueViolation(err, "sku") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create part")
	}
	return part, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Part, error) {
	var part models.Part
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&part).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load part")
	}
	return &part, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]models.Part, error) {
	query := s.db.WithContext(ctx).Model(&models.Part{})
	if filters.Query != "" {
		pattern := "%" + strings.ToLower(filters.Query) + "%"
		query = query.Where("LOWER(sku) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}
	if filters.LowOnly {
		query = query.Where("stock <= min_stock")
	}
	var parts []models.Part
	if err := query.Order("sku ASC").Find(&parts).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list parts")
	}
	return parts, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Part, error) {
	part, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		part.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		part.Description = input.Description
	}
	if input.Cost != nil {
		cost, err := parseMoney(*input.Cost, "cost")
		if err != nil {
			return nil, err
		}
		part.Cost = cost
	}
	if input.SalePrice != nil {
		price, err := parseMoney(*input.SalePrice, "sale_price")
		if err != nil {
			return nil, err
		}
		part.SalePrice = price
	}
	if input.Stock != nil {
		part.Stock = *input.Stock
	}
	if input.MinStock != nil {
		part.MinStock = *input.MinStock
	}
	if err := s.db.WithContext(ctx).Save(part).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update part")
	}
	return part, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Part{}, "id = ?", id).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete part")
	}
	return nil
}

// LowStock lists parts at or below their reorder threshold, most depleted
// first.
func (s *service) LowStock(ctx context.Context) ([]models.Part, error) {
	var parts []models.Part
	err := s.db.WithContext(ctx).
		Where("stock <= min_stock").
		Order("stock - min_stock ASC").
		Find(&parts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock parts")
	}
	return parts, nil
}

func normalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

func parseMoney(value, field string) (decimal.Decimal, error) {
	amount, err := money.Parse(value)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a decimal string").
			WithDetails(map[string]string{"field": field})
	}
	if amount.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount cannot be negative").
			WithDetails(map[string]string{"field": field})
	}
	return money.Round2(amount), nil
}

func parsePrices(cost, salePrice string) (decimal.Decimal, decimal.Decimal, error) {
	parsedCost, err := parseMoney(cost, "cost")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	parsedPrice, err := parseMoney(salePrice, "sale_price")
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return parsedCost, parsedPrice, nil
}
