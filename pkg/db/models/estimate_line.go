package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopflow-app/shopflow-backend/pkg/enums"
)

// EstimateLine snapshots one priced entry. ItemType/ItemID reference either a
// part or a labor service; description and unit price are denormalized copies
// taken when the line was written. Lines are replaced wholesale on every
// estimate edit, so line identity carries no downstream references.
type EstimateLine struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EstimateID  uuid.UUID          `gorm:"column:estimate_id;type:uuid;not null;index" json:"estimate_id"`
	ItemType    enums.LineItemType `gorm:"column:item_type;size:20;not null" json:"item_type"`
	ItemID      uuid.UUID          `gorm:"column:item_id;type:uuid;not null" json:"item_id"`
	Description string             `gorm:"column:description;not null" json:"description"`
	Quantity    int                `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice   decimal.Decimal    `gorm:"column:unit_price;type:numeric(10,2);not null" json:"unit_price"`
	LineTotal   decimal.Decimal    `gorm:"column:line_total;type:numeric(10,2);not null" json:"line_total"`
	SortOrder   int                `gorm:"column:sort_order;not null;default:0" json:"sort_order"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
