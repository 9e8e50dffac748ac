// Package settings stores named business values with code-level defaults.
// Rates live here as 4-decimal string fractions; estimates snapshot them at
// creation so later edits never rewrite open documents.
package settings

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

const (
	KeyShopSuppliesRate = "shop_supplies_rate"
	KeyTaxRate          = "tax_rate"
)

// Defaults apply when a key has never been written.
var defaults = map[string]string{
	KeyShopSuppliesRate: "0.0500",
	KeyTaxRate:          "0.0825",
}

// Service exposes read/write access to business settings.
type Service interface {
	Get(ctx context.Context, key string) (string, error)
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	Rates(ctx context.Context) (Rates, error)
}

// Rates bundles the two estimate-time rate snapshots.
type Rates struct {
	ShopSupplies decimal.Decimal
	Tax          decimal.Decimal
}

type service struct {
	db *gorm.DB
}

// NewService builds a settings service bound to the provided DB.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("settings db required")
	}
	return &service{db: db}, nil
}

func (s *service) Get(ctx context.Context, key string) (string, error) {
	var row models.Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			if fallback, ok := defaults[key]; ok {
				return fallback, nil
			}
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "setting not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load setting")
	}
	return row.Value, nil
}

func (s *service) All(ctx context.Context) (map[string]string, error) {
	var rows []models.Setting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list settings")
	}
	out := make(map[string]string, len(defaults)+len(rows))
	for key, value := range defaults {
		out[key] = value
	}
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (s *service) Set(ctx context.Context, key, value string) error {
	if key == KeyShopSuppliesRate || key == KeyTaxRate {
		rate, err := money.Parse(value)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "rate must be a decimal string").
				WithDetails(map[string]string{"key": key})
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return pkgerrors.New(pkgerrors.CodeValidation, "rate must be between 0 and 1").
				WithDetails(map[string]string{"key": key})
		}
	}
	row := models.Setting{Key: key, Value: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save setting")
	}
	return nil
}

func (s *service) Rates(ctx context.Context) (Rates, error) {
	supplies, err := s.Get(ctx, KeyShopSuppliesRate)
	if err != nil {
		return Rates{}, err
	}
	tax, err := s.Get(ctx, KeyTaxRate)
	if err != nil {
		return Rates{}, err
	}
	suppliesRate, err := money.Parse(supplies)
	if err != nil {
		return Rates{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse shop supplies rate")
	}
	taxRate, err := money.Parse(tax)
	if err != nil {
		return Rates{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse tax rate")
	}
	return Rates{ShopSupplies: suppliesRate, Tax: taxRate}, nil
}
