package parts

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

// View is the wire shape of a part. The money fields are fixed two-decimal
// strings regardless of how the driver round-trips the stored values.
type View struct {
	ID          uuid.UUID `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Cost        string    `json:"cost"`
	SalePrice   string    `json:"sale_price"`
	Stock       int       `json:"stock"`
	MinStock    int       `json:"min_stock"`
	LowStock    bool      `json:"low_stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewView maps a part onto its wire shape.
func NewView(part *models.Part) View {
	return View{
		ID:          part.ID,
		SKU:         part.SKU,
		Name:        part.Name,
		Description: part.Description,
		Cost:        money.String2(part.Cost),
		SalePrice:   money.String2(part.SalePrice),
		Stock:       part.Stock,
		MinStock:    part.MinStock,
		LowStock:    part.IsLowStock(),
		CreatedAt:   part.CreatedAt,
		UpdatedAt:   part.UpdatedAt,
	}
}

// NewViews maps a part list onto its wire shape.
func NewViews(list []models.Part) []View {
	views := make([]View, 0, len(list))
	for i := range list {
		views = append(views, NewView(&list[i]))
	}
	return views
}
