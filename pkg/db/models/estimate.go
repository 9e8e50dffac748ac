package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopflow-app/shopflow-backend/pkg/enums"
)

// Estimate is the central aggregate. The two rate fields are a point-in-time
// snapshot of business settings taken at creation; they are never re-read from
// the live settings store. The five computed totals are always derivable from
// the lines plus the stored rates.
type Estimate struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EstimateNumber     string               `gorm:"column:estimate_number;size:20;not null;uniqueIndex" json:"estimate_number"`
	CustomerID         uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	UnitID             *uuid.UUID           `gorm:"column:unit_id;type:uuid" json:"unit_id"`
	Status             enums.EstimateStatus `gorm:"column:status;size:20;not null;default:'draft'" json:"status"`
	PublicToken        *string              `gorm:"column:public_token;size:64;uniqueIndex" json:"public_token"`
	SubtotalParts      decimal.Decimal      `gorm:"column:subtotal_parts;type:numeric(10,2);not null" json:"subtotal_parts"`
	SubtotalLabor      decimal.Decimal      `gorm:"column:subtotal_labor;type:numeric(10,2);not null" json:"subtotal_labor"`
	ShopSuppliesRate   decimal.Decimal      `gorm:"column:shop_supplies_rate;type:numeric(6,4);not null" json:"shop_supplies_rate"`
	ShopSuppliesAmount decimal.Decimal      `gorm:"column:shop_supplies_amount;type:numeric(10,2);not null" json:"shop_supplies_amount"`
	TaxRate            decimal.Decimal      `gorm:"column:tax_rate;type:numeric(6,4);not null" json:"tax_rate"`
	TaxAmount          decimal.Decimal      `gorm:"column:tax_amount;type:numeric(10,2);not null" json:"tax_amount"`
	Total              decimal.Decimal      `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	Notes              *string              `gorm:"column:notes" json:"notes"`
	ApprovedAt         *time.Time           `gorm:"column:approved_at" json:"approved_at"`
	ApprovedIP         *string              `gorm:"column:approved_ip;size:45" json:"approved_ip"`
	Customer           *Customer            `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Unit               *Unit                `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Lines              []EstimateLine       `gorm:"foreignKey:EstimateID" json:"lines,omitempty"`
	Invoice            *Invoice             `gorm:"foreignKey:EstimateID" json:"invoice,omitempty"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// CanEdit reports whether lines, customer, unit and notes may still change and
// whether the estimate may be deleted. Both the UI and the server-side guards
// consult this single predicate.
func (e Estimate) CanEdit() bool {
	return e.Status == enums.EstimateStatusDraft || e.Status == enums.EstimateStatusSent
}
