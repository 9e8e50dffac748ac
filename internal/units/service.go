// Package units manages customer vehicles keyed by VIN.
package units

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopflow-app/shopflow-backend/pkg/db"
	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
)

// CreateInput carries the fields accepted when registering a unit.
type CreateInput struct {
	CustomerID uuid.UUID `json:"customer_id" validate:"required"`
	VIN        string    `json:"vin" validate:"required,vin"`
	Make       string    `json:"make" validate:"required,max=60"`
	Model      string    `json:"model" validate:"required,max=60"`
	Engine     *string   `json:"engine" validate:"omitempty,max=120"`
	Mileage    int       `json:"mileage" validate:"gte=0"`
}

// UpdateInput carries a partial unit update. VIN is immutable after creation.
type UpdateInput struct {
	Make    *string `json:"make" validate:"omitempty,max=60"`
	Model   *string `json:"model" validate:"omitempty,max=60"`
	Engine  *string `json:"engine" validate:"omitempty,max=120"`
	Mileage *int    `json:"mileage" validate:"omitempty,gte=0"`
}

// Service defines unit lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Unit, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Unit, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Unit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db *gorm.DB
}

// NewService builds a units service bound to the provided DB.
func NewService(gdb *gorm.DB) (Service, error) {
	if gdb == nil {
		return nil, fmt.Errorf("units db required")
	}
	return &service{db: gdb}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Unit, error) {
	var owner models.Customer
	err := s.db.WithContext(ctx).Where("id = ?", input.CustomerID).First(&owner).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}

	unit := &models.Unit{
		ID:         uuid.New(),
		CustomerID: input.CustomerID,
		VIN:        strings.ToUpper(strings.TrimSpace(input.VIN)),
		Make:       strings.TrimSpace(input.Make),
		Model:      strings.TrimSpace(input.Model),
		Engine:     input.Engine,
		Mileage:    input.Mileage,
	}
	if err := s.db.WithContext(ctx).Create(unit).Error; err != nil {
		if db.IsUniqueViolation(err, "vin") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "vin already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create unit")
	}
	return unit, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&unit).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load unit")
	}
	return &unit, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Unit, error) {
	var units []models.Unit
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&units).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list units")
	}
	return units, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Unit, error) {
	unit, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Make != nil {
		unit.Make = strings.TrimSpace(*input.Make)
	}
	if input.Model != nil {
		unit.Model = strings.TrimSpace(*input.Model)
	}
	if input.Engine != nil {
		unit.Engine = input.Engine
	}
	if input.Mileage != nil {
		unit.Mileage = *input.Mileage
	}
	if err := s.db.WithContext(ctx).Save(unit).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update unit")
	}
	return unit, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Unit{}, "id = ?", id).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete unit")
	}
	return nil
}
