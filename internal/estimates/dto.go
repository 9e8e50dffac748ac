package estimates

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopflow-app/shopflow-backend/pkg/db/models"
	"github.com/shopflow-app/shopflow-backend/pkg/enums"
	"github.com/shopflow-app/shopflow-backend/pkg/money"
)

// LineInput is one requested line. UnitPrice overrides the catalog price when
// present; Description overrides the catalog snapshot when present.
type LineInput struct {
	ItemType    string  `json:"item_type" validate:"required,oneof=part labor_service"`
	ItemID      string  `json:"item_id" validate:"required,uuid4"`
	Quantity    int     `json:"quantity" validate:"required,gte=1"`
	UnitPrice   *string `json:"unit_price"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// CreateInput carries the fields accepted when opening an estimate.
type CreateInput struct {
	CustomerID uuid.UUID   `json:"customer_id" validate:"required"`
	UnitID     *uuid.UUID  `json:"unit_id"`
	Notes      *string     `json:"notes"`
	Lines      []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// UpdateInput carries an estimate edit. Lines, when present, replace the
// existing set wholesale.
type UpdateInput struct {
	UnitID *uuid.UUID   `json:"unit_id"`
	Notes  *string      `json:"notes"`
	Lines  *[]LineInput `json:"lines" validate:"omitempty,min=1,dive"`
}

// ListFilters narrows the estimate list.
type ListFilters struct {
	Status     *enums.EstimateStatus
	CustomerID *uuid.UUID
	// Query matches against the estimate number and the customer name.
	Query string
}

// LineView is the wire shape of one priced line.
type LineView struct {
	ID          uuid.UUID `json:"id"`
	ItemType    string    `json:"item_type"`
	ItemID      uuid.UUID `json:"item_id"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	LineTotal   string    `json:"line_total"`
	SortOrder   int       `json:"sort_order"`
}

// View is the staff-facing wire shape of an estimate. Money fields are fixed
// two-decimal strings, rates fixed four-decimal strings.
type View struct {
	ID                 uuid.UUID    `json:"id"`
	EstimateNumber     string       `json:"estimate_number"`
	CustomerID         uuid.UUID    `json:"customer_id"`
	UnitID             *uuid.UUID   `json:"unit_id,omitempty"`
	Status             string       `json:"status"`
	PublicToken        *string      `json:"public_token,omitempty"`
	SubtotalParts      string       `json:"subtotal_parts"`
	SubtotalLabor      string       `json:"subtotal_labor"`
	ShopSuppliesRate   string       `json:"shop_supplies_rate"`
	ShopSuppliesAmount string       `json:"shop_supplies_amount"`
	TaxRate            string       `json:"tax_rate"`
	TaxAmount          string       `json:"tax_amount"`
	Total              string       `json:"total"`
	Notes              *string      `json:"notes,omitempty"`
	ApprovedAt         *time.Time   `json:"approved_at,omitempty"`
	ApprovedIP         *string      `json:"approved_ip,omitempty"`
	Lines              []LineView   `json:"lines"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// ApprovalResult reports the outcome of an approval request. AlreadyApproved
// is set when the estimate had been approved before the call, so callers can
// tell a replayed tap from the first acceptance.
type ApprovalResult struct {
	Estimate        *models.Estimate
	AlreadyApproved bool
}

// ApprovalView is the wire shape of an approval response.
type ApprovalView struct {
	Estimate        PublicView `json:"estimate"`
	AlreadyApproved bool       `json:"already_approved"`
	Message         string     `json:"message"`
}

// NewApprovalView maps an approval outcome onto its wire shape.
func NewApprovalView(result *ApprovalResult) ApprovalView {
	message := "estimate approved"
	if result.AlreadyApproved {
		message = "estimate was already approved"
	}
	return ApprovalView{
		Estimate:        NewPublicView(result.Estimate),
		AlreadyApproved: result.AlreadyApproved,
		Message:         message,
	}
}

// PublicView is the customer-facing wire shape served by token lookup. It
// omits internal identifiers and the approval IP.
type PublicView struct {
	EstimateNumber     string     `json:"estimate_number"`
	Status             string     `json:"status"`
	CustomerName       string     `json:"customer_name"`
	UnitLabel          *string    `json:"unit_label,omitempty"`
	SubtotalParts      string     `json:"subtotal_parts"`
	SubtotalLabor      string     `json:"subtotal_labor"`
	ShopSuppliesAmount string     `json:"shop_supplies_amount"`
	TaxAmount          string     `json:"tax_amount"`
	Total              string     `json:"total"`
	Notes              *string    `json:"notes,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	Lines              []LineView `json:"lines"`
}

// NewView maps a loaded estimate onto its staff wire shape.
func NewView(estimate *models.Estimate) View {
	return View{
		ID:                 estimate.ID,
		EstimateNumber:     estimate.EstimateNumber,
		CustomerID:         estimate.CustomerID,
		UnitID:             estimate.UnitID,
		Status:             estimate.Status.String(),
		PublicToken:        estimate.PublicToken,
		SubtotalParts:      money.String2(estimate.SubtotalParts),
		SubtotalLabor:      money.String2(estimate.SubtotalLabor),
		ShopSuppliesRate:   money.String4(estimate.ShopSuppliesRate),
		ShopSuppliesAmount: money.String2(estimate.ShopSuppliesAmount),
		TaxRate:            money.String4(estimate.TaxRate),
		TaxAmount:          money.String2(estimate.TaxAmount),
		Total:              money.String2(estimate.Total),
		Notes:              estimate.Notes,
		ApprovedAt:         estimate.ApprovedAt,
		ApprovedIP:         estimate.ApprovedIP,
		Lines:              newLineViews(estimate.Lines),
		CreatedAt:          estimate.CreatedAt,
		UpdatedAt:          estimate.UpdatedAt,
	}
}

// NewPublicView maps a loaded estimate onto the customer wire shape.
func NewPublicView(estimate *models.Estimate) PublicView {
	view := PublicView{
		EstimateNumber:     estimate.EstimateNumber,
		Status:             estimate.Status.String(),
		SubtotalParts:      money.String2(estimate.SubtotalParts),
		SubtotalLabor:      money.String2(estimate.SubtotalLabor),
		ShopSuppliesAmount: money.String2(estimate.ShopSuppliesAmount),
		TaxAmount:          money.String2(estimate.TaxAmount),
		Total:              money.String2(estimate.Total),
		Notes:              estimate.Notes,
		ApprovedAt:         estimate.ApprovedAt,
		Lines:              newLineViews(estimate.Lines),
	}
	if estimate.Customer != nil {
		view.CustomerName = estimate.Customer.Name
	}
	if estimate.Unit != nil {
		label := estimate.Unit.Make + " " + estimate.Unit.Model
		view.UnitLabel = &label
	}
	return view
}

func newLineViews(lines []models.EstimateLine) []LineView {
	views := make([]LineView, 0, len(lines))
	for _, line := range lines {
		views = append(views, LineView{
			ID:          line.ID,
			ItemType:    line.ItemType.String(),
			ItemID:      line.ItemID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   money.String2(line.UnitPrice),
			LineTotal:   money.String2(line.LineTotal),
			SortOrder:   line.SortOrder,
		})
	}
	return views
}
