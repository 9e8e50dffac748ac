package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LaborService is a catalog labor entry. Estimate lines snapshot its price and
// description, so later catalog edits never rewrite historical estimates.
type LaborService struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Description  *string         `gorm:"column:description" json:"description"`
	DefaultPrice decimal.Decimal `gorm:"column:default_price;type:numeric(10,2);not null" json:"default_price"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
