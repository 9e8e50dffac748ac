package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is the frozen financial snapshot produced exactly once per estimate.
// The unique index on EstimateID is the storage-layer guard that closes the
// double-conversion race. After creation only NotifiedAt may change.
type Invoice struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InvoiceNumber      string          `gorm:"column:invoice_number;size:20;not null;uniqueIndex" json:"invoice_number"`
	EstimateID         uuid.UUID       `gorm:"column:estimate_id;type:uuid;not null;uniqueIndex" json:"estimate_id"`
	IssuedAt           time.Time       `gorm:"column:issued_at;not null" json:"issued_at"`
	SubtotalParts      decimal.Decimal `gorm:"column:subtotal_parts;type:numeric(10,2);not null" json:"subtotal_parts"`
	SubtotalLabor      decimal.Decimal `gorm:"column:subtotal_labor;type:numeric(10,2);not null" json:"subtotal_labor"`
	ShopSuppliesRate   decimal.Decimal `gorm:"column:shop_supplies_rate;type:numeric(6,4);not null" json:"shop_supplies_rate"`
	ShopSuppliesAmount decimal.Decimal `gorm:"column:shop_supplies_amount;type:numeric(10,2);not null" json:"shop_supplies_amount"`
	TaxRate            decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null" json:"tax_rate"`
	TaxAmount          decimal.Decimal `gorm:"column:tax_amount;type:numeric(10,2);not null" json:"tax_amount"`
	Total              decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	NotifiedAt         *time.Time      `gorm:"column:notified_at" json:"notified_at"`
	Estimate           *Estimate       `gorm:"foreignKey:EstimateID" json:"estimate,omitempty"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// WasNotified reports whether the ready-for-pickup dispatch already happened.
// Callers must check this before triggering the notification collaborator.
func (i Invoice) WasNotified() bool {
	return i.NotifiedAt != nil
}
