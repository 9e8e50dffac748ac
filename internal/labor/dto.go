package labor

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

// View is the wire shape of a labor service, with the price as a fixed
// two-decimal string.
type View struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	DefaultPrice string    `json:"default_price"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewView maps a labor service onto its wire shape.
func NewView(entry *models.LaborService) View {
	return View{
		ID:           entry.ID,
		Name:         entry.Name,
		Description:  entry.Description,
		DefaultPrice: money.String2(entry.DefaultPrice),
		CreatedAt:    entry.CreatedAt,
		UpdatedAt:    entry.UpdatedAt,
	}
}

// NewViews maps a labor service list onto its wire shape.
func NewViews(list []models.LaborService) []View {
	views := make([]View, 0, len(list))
	for i := range list {
		views = append(views, NewView(&list[i]))
	}
	return views
}
