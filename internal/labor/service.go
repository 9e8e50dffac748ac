// Package labor manages the labor services catalog.
package labor

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

type CreateInput struct {
	Name         string  `json:"name" validate:"required,max=120"`
	Description  *string `json:"description"`
	DefaultPrice string  `json:"default_price" validate:"required"`
}

type UpdateInput struct {
	Name         *string `json:"name" validate:"omitempty,max=120"`
	Description  *string `json:"description"`
	DefaultPrice *string `json:"default_price"`
}

type ListFilters struct {
	Query string
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.LaborService, error)
	Get(ctx context.Context, id uuid.UUID) (*models.LaborService, error)
	List(ctx context.Context, filters ListFilters) ([]models.LaborService, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.LaborService, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db *gorm.DB
}

func NewService(gdb *gorm.DB) (Service, error) {
	if gdb == nil {
		return nil, fmt.Errorf("labor db required")
	}
	return &service{db: gdb}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.LaborService, error) {
	price, err := money.Parse(input.DefaultPrice)
	if err != nil || price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default_price must be a non-negative decimal string")
	}
	entry := &models.LaborService{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		DefaultPrice: money.Round2(price),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create labor service")
	}
	return entry, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.LaborService, error) {
	var entry models.LaborService
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "labor service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load labor service")
	}
	return &entry, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]models.LaborService, error) {
	query := s.db.WithContext(ctx).Model(&models.LaborService{})
	if filters.Query != "" {
		pattern := "%" + strings.ToLower(filters.Query) + "%"
		query = query.Where("LOWER(name) LIKE ?", pattern)
	}
	var entries []models.LaborService
	if err := query.Order("name ASC").Find(&entries).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list labor services")
	}
	return entries, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.LaborService, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		entry.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		entry.Description = input.Description
	}
	if input.DefaultPrice != nil {
		price, err := money.Parse(*input.DefaultPrice)
		if err != nil || price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "default_price must be a non-negative decimal string")
		}
		entry.DefaultPrice = money.Round2(price)
	}
	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update labor service")
	}
	return entry, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.LaborService{}, "id = ?", id).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete labor service")
	}
	return nil
}
