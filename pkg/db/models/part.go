package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Part is a stocked catalog item. Stock is a signed counter and MAY go
// negative: conversions always proceed and insufficiency is surfaced as a
// warning, reflecting backordered parts already promised to a job.
type Part struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SKU         string          `gorm:"column:sku;size:50;not null;uniqueIndex" json:"sku"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Description *string         `gorm:"column:description" json:"description"`
	Cost        decimal.Decimal `gorm:"column:cost;type:numeric(10,2);not null" json:"cost"`
	SalePrice   decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2);not null" json:"sale_price"`
	Stock       int             `gorm:"column:stock;not null;default:0" json:"stock"`
	MinStock    int             `gorm:"column:min_stock;not null;default:0" json:"min_stock"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsLowStock reports whether the part is at or below its reorder threshold.
func (p Part) IsLowStock() bool {
	return p.Stock <= p.MinStock
}
